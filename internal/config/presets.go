package config

// Preset is a named experiment setup.
type Preset struct {
	Reference string
	Title     string
	Series    []SeriesConfig
}

var presets = map[string]Preset{
	"thin_lens": {
		Reference: "output_thin_lens_compare_gt.ppm",
		Title:     "MSE Comparison for Jitter and Random Sampling in Thin Lens Camera",
		Series: []SeriesConfig{
			{Label: "Jitter", Pattern: "output_thin_lens_compare_jitter_*.ppm"},
			{Label: "Random", Pattern: "output_thin_lens_compare_random_*.ppm"},
		},
	},
	"area_light": {
		Reference: "area_light_compare_gt.ppm",
		Title:     "MSE Comparison for Jitter and Random Sampling in Area Light",
		Series: []SeriesConfig{
			{Label: "Jitter", Pattern: "area_light_compare_jitter_*.ppm"},
			{Label: "Random", Pattern: "area_light_compare_random_*.ppm"},
		},
	},
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}
