package aggregate

import "fmt"

// Series names one sampling strategy and the glob that finds its frames.
type Series struct {
	Label   string `json:"label"`
	Pattern string `json:"pattern"`
}

// Experiment is everything needed to compare frame sequences against a
// reference image.
type Experiment struct {
	Reference string   `json:"reference"`
	Title     string   `json:"title,omitempty"`
	Series    []Series `json:"series"`
}

// ValidationError reports an unusable experiment definition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid experiment: " + e.Field + " " + e.Reason
}

// Validate checks that the experiment can be run.
func (e Experiment) Validate() error {
	if e.Reference == "" {
		return &ValidationError{Field: "reference", Reason: "cannot be empty"}
	}
	if len(e.Series) == 0 {
		return &ValidationError{Field: "series", Reason: "cannot be empty"}
	}

	seen := make(map[string]bool, len(e.Series))
	for i, s := range e.Series {
		if s.Label == "" {
			return &ValidationError{Field: fmt.Sprintf("series[%d].label", i), Reason: "cannot be empty"}
		}
		if s.Pattern == "" {
			return &ValidationError{Field: fmt.Sprintf("series[%d].pattern", i), Reason: "cannot be empty"}
		}
		if seen[s.Label] {
			return &ValidationError{Field: fmt.Sprintf("series[%d].label", i), Reason: fmt.Sprintf("duplicates %q", s.Label)}
		}
		seen[s.Label] = true
	}
	return nil
}
