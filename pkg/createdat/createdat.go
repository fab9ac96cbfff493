package createdat

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/quidome/media-sorter/pkg/scan"
)

// Provenance describes where a capture timestamp was derived from.
type Provenance string

const (
	ProvenanceMetadata   Provenance = "metadata"
	ProvenanceFilesystem Provenance = "filesystem"
	ProvenanceNone       Provenance = "none"
)

// TagCandidates lists the metadata tags consulted for images, in priority order:
// original capture, creation, digitization, generic modification.
var TagCandidates = []string{
	"DateTimeOriginal",
	"CreateDate",
	"DateTimeDigitized",
	"DateTime",
}

// Layouts are the accepted textual timestamp formats, tried in order.
var Layouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// Result contains a best-effort capture timestamp and its provenance.
type Result struct {
	CapturedAt time.Time
	Provenance Provenance

	// Tag names the metadata tag the timestamp came from. Empty unless Provenance is metadata.
	Tag string
}

// Known reports whether a timestamp was determined.
func (r Result) Known() bool {
	return r.Provenance != ProvenanceNone && !r.CapturedAt.IsZero()
}

// MetadataReader extracts embedded metadata tags from a media stream.
//
// Implementations return a tag name to raw value mapping. Errors are treated as
// "no metadata available" by Determine.
type MetadataReader interface {
	Tags(path string, r io.ReadSeeker) (map[string]string, error)
}

// Options configures Determine.
type Options struct {
	// Location is used for metadata timestamps, which carry no timezone, and for
	// modification times. If nil, time.Local is used.
	Location *time.Location

	// Metadata optionally reads embedded tags.
	//
	// If nil, DefaultReader is used.
	Metadata MetadataReader

	// Logger receives debug output about swallowed metadata failures. Optional.
	Logger *slog.Logger
}

// Determine returns the best-effort capture timestamp for file.
func Determine(fsys afero.Fs, file scan.MediaFile, opts Options) Result {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	if file.Kind == scan.KindImage {
		if res, ok := fromMetadata(fsys, file.Path, loc, opts); ok {
			return res
		}
	}

	return fromFilesystem(fsys, file.Path, loc)
}

func fromMetadata(fsys afero.Fs, path string, loc *time.Location, opts Options) (Result, bool) {
	metadata := opts.Metadata
	if metadata == nil {
		metadata = DefaultReader()
	}

	f, err := fsys.Open(path)
	if err != nil {
		logDebug(opts.Logger, "open for metadata failed", path, err)
		return Result{}, false
	}
	defer f.Close()

	tags, err := readTags(metadata, path, f)
	if err != nil {
		logDebug(opts.Logger, "metadata unavailable", path, err)
		return Result{}, false
	}

	for _, tag := range TagCandidates {
		value, ok := tags[tag]
		if !ok {
			continue
		}
		if tm, ok := ParseDateTime(value, loc); ok {
			return Result{CapturedAt: tm, Provenance: ProvenanceMetadata, Tag: tag}, true
		}
	}
	return Result{}, false
}

// readTags shields callers from readers that panic on malformed input.
func readTags(metadata MetadataReader, path string, r io.ReadSeeker) (tags map[string]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tags, err = nil, &PanicError{Value: rec}
		}
	}()
	return metadata.Tags(path, r)
}

func fromFilesystem(fsys afero.Fs, path string, loc *time.Location) Result {
	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return Result{Provenance: ProvenanceNone}
	}
	mtime := info.ModTime()
	if mtime.IsZero() {
		return Result{Provenance: ProvenanceNone}
	}
	return Result{CapturedAt: mtime.In(loc), Provenance: ProvenanceFilesystem}
}

// ParseDateTime parses value using the first matching layout in Layouts.
func ParseDateTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(strings.TrimRight(value, "\x00"))
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range Layouts {
		tm, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return tm, true
		}
	}
	return time.Time{}, false
}

func logDebug(logger *slog.Logger, msg, path string, err error) {
	if logger == nil {
		return
	}
	logger.Debug(msg, slog.String("path", path), slog.Any("error", err))
}
