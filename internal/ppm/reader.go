package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Magic is the only header token accepted by Decode.
const Magic = "P6"

// MaxValue is the largest maxval supported (8-bit samples).
const MaxValue = 255

// ErrSampleCount is returned when the raster does not hold exactly
// width*height*3 bytes.
var ErrSampleCount = errors.New("sample count does not match header dimensions")

// FormatError reports an unsupported PPM variant.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "unsupported PPM format: " + e.Reason
}

// ParseError reports a malformed header line.
type ParseError struct {
	What  string // "dimensions" or "maxval"
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s line %q: %v", e.What, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed %s line %q", e.What, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadFile opens and decodes a binary PPM file.
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode reads a binary ("P6") PPM image.
//
// The header is line oriented: the magic line, then any number of "#"
// comment lines, then "width height", then maxval. Comments are only
// recognised before the dimensions line. Everything after the maxval line
// is raw interleaved RGB data.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	magic, err := readHeaderLine(br)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &FormatError{Reason: strconv.Quote("")}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != Magic {
		return nil, &FormatError{Reason: strconv.Quote(magic)}
	}

	var dims string
	for {
		dims, err = readHeaderLine(br)
		if err != nil {
			return nil, fmt.Errorf("failed to read dimensions: %w", err)
		}
		if !strings.HasPrefix(dims, "#") {
			break
		}
	}
	width, height, err := parseDimensions(dims)
	if err != nil {
		return nil, err
	}

	line, err := readHeaderLine(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read maxval: %w", err)
	}
	maxval, err := strconv.Atoi(line)
	if err != nil {
		return nil, &ParseError{What: "maxval", Value: line, Err: err}
	}
	if maxval > MaxValue {
		return nil, &FormatError{Reason: fmt.Sprintf("maxval %d exceeds %d, only 8-bit PPM files are supported", maxval, MaxValue)}
	}
	if maxval < 1 {
		return nil, &ParseError{What: "maxval", Value: line, Err: errors.New("must be positive")}
	}

	pix, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	want := width * height * Channels // bounded by parseDimensions
	if len(pix) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %dx%d", ErrSampleCount, len(pix), want, width, height)
	}

	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// readHeaderLine returns the next line with surrounding whitespace removed.
// A final line without a newline is accepted.
func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseDimensions(line string) (width, height int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, &ParseError{What: "dimensions", Value: line, Err: fmt.Errorf("expected 2 fields, got %d", len(fields))}
	}
	if width, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, &ParseError{What: "dimensions", Value: line, Err: err}
	}
	if height, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, &ParseError{What: "dimensions", Value: line, Err: err}
	}
	if width < 0 || height < 0 {
		return 0, 0, &ParseError{What: "dimensions", Value: line, Err: errors.New("negative size")}
	}
	if _, err := PixLen(width, height); err != nil {
		return 0, 0, &ParseError{What: "dimensions", Value: line, Err: err}
	}
	return width, height, nil
}
