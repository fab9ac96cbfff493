package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Kind classifies a file by its extension.
type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindIgnored     Kind = "ignored"
	KindUnsupported Kind = "unsupported"
)

type Options struct {
	// MaxDepth limits recursion below root. -1 means unlimited, 0 means root only.
	MaxDepth int

	ImageExtensions   []string
	VideoExtensions   []string
	SidecarExtensions []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth: -1,
		ImageExtensions: []string{
			".jpg", ".jpeg", ".png", ".tif", ".tiff", ".heic", ".heif", ".webp",
		},
		VideoExtensions: []string{
			".mov", ".mp4", ".avi", ".mpeg",
		},
		SidecarExtensions: []string{
			".aae",
		},
	}
}

// MediaFile is a discovered image or video. Path is its identity.
type MediaFile struct {
	Path    string    `json:"path"`
	Rel     string    `json:"rel"`
	Dir     string    `json:"dir"`
	Stem    string    `json:"stem"`
	Kind    Kind      `json:"kind"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Name returns the base name of the file.
func (m MediaFile) Name() string {
	return filepath.Base(m.Path)
}

// NewMediaFile builds a MediaFile for path without touching the filesystem.
func NewMediaFile(root, path string, kind Kind) MediaFile {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	base := filepath.Base(path)
	return MediaFile{
		Path: path,
		Rel:  filepath.ToSlash(rel),
		Dir:  filepath.Dir(path),
		Stem: strings.TrimSuffix(base, filepath.Ext(base)),
		Kind: kind,
	}
}

// Classify reports the kind of name according to the extension sets in opts.
// Sidecar extensions take precedence over image and video extensions.
func Classify(name string, opts Options) Kind {
	return newClassifier(opts).kind(name)
}

// classifier holds the normalized extension sets of an Options value.
type classifier struct {
	images   map[string]bool
	videos   map[string]bool
	sidecars map[string]bool
}

func newClassifier(opts Options) classifier {
	return classifier{
		images:   normalizeExts(opts.ImageExtensions),
		videos:   normalizeExts(opts.VideoExtensions),
		sidecars: normalizeExts(opts.SidecarExtensions),
	}
}

func (c classifier) kind(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == "":
		return KindUnsupported
	case c.sidecars[ext]:
		return KindIgnored
	case c.images[ext]:
		return KindImage
	case c.videos[ext]:
		return KindVideo
	default:
		return KindUnsupported
	}
}

// Scan walks root and returns every image and video below it, sorted by relative path.
// Symlinks to regular files are reported with the target's size and modification time.
// Symlinked directories are not followed.
func Scan(fsys afero.Fs, root string, opts Options) ([]MediaFile, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	root = filepath.Clean(root)
	classes := newClassifier(opts)

	var matches []MediaFile

	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if opts.MaxDepth >= 0 && depth(rel) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.MaxDepth >= 0 && depth(rel) > opts.MaxDepth {
			return nil
		}

		kind := classes.kind(rel)
		if kind != KindImage && kind != KindVideo {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := fsys.Stat(path)
			if statErr != nil {
				// dangling link
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		m := NewMediaFile(root, path, kind)
		m.Size = info.Size()
		m.ModTime = info.ModTime()
		matches = append(matches, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Rel < matches[j].Rel
	})
	return matches, nil
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

// depth counts the directory separators in rel, so a file directly under root has depth 0.
func depth(rel string) int {
	rel = filepath.Clean(rel)
	if rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/")
}
