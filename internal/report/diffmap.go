package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jbuchbinder/gopnm"

	"github.com/cwbudde/msecompare/internal/aggregate"
	"github.com/cwbudde/msecompare/internal/metric"
	"github.com/cwbudde/msecompare/internal/ppm"
)

// WriteDiffMaps writes a difference map for every frame of every series of
// exp to dir/<label>/<frame file>.ppm and returns the number of maps
// written.
func WriteDiffMaps(ctx context.Context, exp aggregate.Experiment, dir string) (int, error) {
	ref, err := ppm.ReadFile(exp.Reference)
	if err != nil {
		return 0, fmt.Errorf("failed to load reference: %w", err)
	}

	dirs, err := seriesDirs(exp.Series)
	if err != nil {
		return 0, err
	}

	written := 0
	for i, series := range exp.Series {
		paths, err := filepath.Glob(series.Pattern)
		if err != nil {
			return written, fmt.Errorf("invalid pattern %q: %w", series.Pattern, err)
		}
		sort.Strings(paths)

		outDir := filepath.Join(dir, dirs[i])
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return written, fmt.Errorf("failed to create diff directory: %w", err)
		}

		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return written, err
			}

			out := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".ppm")
			if err := writeDiffMap(ref, path, out); err != nil {
				return written, err
			}
			written++
		}
	}

	slog.Info("Wrote difference maps", "dir", dir, "count", written)
	return written, nil
}

func writeDiffMap(ref *ppm.Image, framePath, outPath string) error {
	img, err := ppm.ReadFile(framePath)
	if err != nil {
		return err
	}

	diff, err := metric.DiffImage(img, ref)
	if err != nil {
		return fmt.Errorf("%s: %w", framePath, err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create diff map: %w", err)
	}
	defer f.Close()

	if err := pnm.Encode(f, diff, pnm.PPM); err != nil {
		return fmt.Errorf("failed to encode diff map: %w", err)
	}
	return nil
}

// seriesDirs maps each series to its output directory name. Labels that
// cannot name a directory, or that collide once sanitized, are rejected.
func seriesDirs(series []aggregate.Series) ([]string, error) {
	dirs := make([]string, len(series))
	owner := make(map[string]string, len(series))
	for i, s := range series {
		name := sanitizeLabel(s.Label)
		if name == "" || name == "." || name == ".." {
			return nil, fmt.Errorf("series label %q cannot be used as a directory name", s.Label)
		}
		if prev, ok := owner[name]; ok {
			return nil, fmt.Errorf("series labels %q and %q both map to directory %q", prev, s.Label, name)
		}
		owner[name] = s.Label
		dirs[i] = name
	}
	return dirs, nil
}

// sanitizeLabel turns a series label into a single path element.
func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, label)
}
