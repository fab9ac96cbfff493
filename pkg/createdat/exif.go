package createdat

import (
	"errors"
	"fmt"
	"io"
	"strings"

	exifsearch "github.com/dsoprea/go-exif/v3"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoTags is returned when a stream decodes but carries no usable tags.
var ErrNoTags = errors.New("no metadata tags")

// PanicError wraps a panic raised by a metadata decoder.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("metadata decoder panicked: %v", e.Value)
}

// DefaultReader returns the reader used when Options.Metadata is nil.
func DefaultReader() MetadataReader {
	return Chain{ExifReader{}, SearchReader{}}
}

// ExifReader decodes EXIF from JPEG and TIFF streams.
type ExifReader struct{}

func (ExifReader) Tags(path string, r io.ReadSeeker) (map[string]string, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("decode exif %s: %w", path, err)
	}

	w := tagWalker{}
	if err := x.Walk(w); err != nil {
		return nil, fmt.Errorf("walk exif %s: %w", path, err)
	}
	if len(w) == 0 {
		return nil, ErrNoTags
	}
	return w, nil
}

type tagWalker map[string]string

func (w tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil || tag.Format() != tiff.StringVal {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	w[string(name)] = s
	return nil
}

// SearchReader scans the raw stream for an embedded EXIF block. It covers containers
// such as HEIC, PNG and WebP that ExifReader cannot open.
type SearchReader struct{}

func (SearchReader) Tags(path string, r io.ReadSeeker) (map[string]string, error) {
	raw, err := exifsearch.SearchAndExtractExifWithReader(r)
	if err != nil {
		return nil, fmt.Errorf("search exif %s: %w", path, err)
	}

	entries, _, err := exifsearch.GetFlatExifData(raw, &exifsearch.ScanOptions{})
	if err != nil {
		return nil, fmt.Errorf("parse exif %s: %w", path, err)
	}

	tags := make(map[string]string, len(entries))
	for _, e := range entries {
		s, ok := e.Value.(string)
		if !ok {
			continue
		}
		if _, seen := tags[e.TagName]; seen {
			continue
		}
		tags[e.TagName] = strings.TrimRight(s, "\x00")
	}
	if len(tags) == 0 {
		return nil, ErrNoTags
	}
	return tags, nil
}

// Chain tries each reader in turn, rewinding the stream between attempts.
// The first non-empty result wins.
type Chain []MetadataReader

func (c Chain) Tags(path string, r io.ReadSeeker) (map[string]string, error) {
	var errs []error
	for _, reader := range c {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind %s: %w", path, err)
		}
		tags, err := readTags(reader, path, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(tags) > 0 {
			return tags, nil
		}
	}
	if len(errs) == 0 {
		return nil, ErrNoTags
	}
	return nil, errors.Join(errs...)
}
