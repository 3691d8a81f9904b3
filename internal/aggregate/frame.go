package aggregate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

var errNoSeparator = errors.New(`missing "_" before frame number`)

// FrameError reports a filename without a trailing "_<number>" token.
type FrameError struct {
	Path string
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("cannot extract frame number from %q: %v", e.Path, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// FrameNumber extracts the frame number from a file name such as
// "output_thin_lens_compare_jitter_016.ppm": the token after the last "_"
// of the base name, cut at its first ".", parsed as a decimal integer.
func FrameNumber(path string) (int, error) {
	base := filepath.Base(path)

	i := strings.LastIndex(base, "_")
	if i < 0 {
		return 0, &FrameError{Path: path, Err: errNoSeparator}
	}

	token := base[i+1:]
	if j := strings.Index(token, "."); j >= 0 {
		token = token[:j]
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, &FrameError{Path: path, Err: err}
	}
	return n, nil
}
