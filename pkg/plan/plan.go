package plan

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/quidome/media-sorter/pkg/createdat"
	"github.com/quidome/media-sorter/pkg/scan"
)

// DefaultUndatedFolder receives files without a determinable date.
const DefaultUndatedFolder = "unknown-date"

// Action is what happens to a planned source.
type Action string

const (
	ActionMove Action = "move"
	ActionCopy Action = "copy"
	ActionSkip Action = "skip"
)

// Entry is one finalized line of a relocation plan.
type Entry struct {
	SourcePath      string
	Folder          string
	DestinationPath string
	Action          Action
}

// Name returns the destination file name.
func (e Entry) Name() string {
	if e.DestinationPath == "" {
		return ""
	}
	return filepath.Base(e.DestinationPath)
}

// FolderName returns the YYYY-MM folder for t.
func FolderName(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// Planner computes destination paths for a single run.
//
// Every path it hands out is reserved, so later calls in the same run never reuse it even
// when nothing has been written to disk yet (simulation). Paths released with Vacate count
// as free, so a simulated run frees names the same way a real move does.
type Planner struct {
	fs            afero.Fs
	undatedFolder string
	reserved      map[string]bool
	vacated       map[string]bool
}

// NewPlanner returns a Planner checking existence against fsys. An empty undatedFolder
// selects DefaultUndatedFolder.
func NewPlanner(fsys afero.Fs, undatedFolder string) *Planner {
	if strings.TrimSpace(undatedFolder) == "" {
		undatedFolder = DefaultUndatedFolder
	}
	return &Planner{
		fs:            fsys,
		undatedFolder: undatedFolder,
		reserved:      make(map[string]bool),
		vacated:       make(map[string]bool),
	}
}

// Vacate marks path as moved away. UniquePath treats it as free unless it was reserved.
func (p *Planner) Vacate(path string) {
	p.vacated[filepath.Clean(path)] = true
}

// Folder returns the destination folder name for r.
func (p *Planner) Folder(r createdat.Result) string {
	if !r.Known() {
		return p.undatedFolder
	}
	return FolderName(r.CapturedAt)
}

// UniquePath returns dir/filename, or the first dir/stem_N.ext for N = 1, 2, ... that is
// neither present on the filesystem nor reserved earlier in this run. Vacated paths are
// free even while they still exist.
//
// The filesystem is consulted on every call; earlier items of the run may have just
// created files in dir.
func (p *Planner) UniquePath(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	for n := 0; ; n++ {
		candidate := filepath.Join(dir, filename)
		if n > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", nameWithoutExt, n, ext))
		}
		if p.reserved[candidate] {
			continue
		}
		if p.vacated[candidate] {
			p.reserved[candidate] = true
			return candidate, nil
		}
		exists, err := afero.Exists(p.fs, candidate)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if exists {
			continue
		}
		p.reserved[candidate] = true
		return candidate, nil
	}
}

// Plan builds the entry for file under destRoot.
//
// A move whose natural destination is the file's current location keeps it in place
// instead of renaming it next to itself.
func (p *Planner) Plan(destRoot string, file scan.MediaFile, r createdat.Result, action Action) (Entry, error) {
	folder := p.Folder(r)
	entry := Entry{SourcePath: file.Path, Folder: folder, Action: action}
	if action == ActionSkip {
		return entry, nil
	}

	dir := filepath.Join(destRoot, folder)
	natural := filepath.Join(dir, file.Name())
	if action == ActionMove && natural == filepath.Clean(file.Path) && !p.reserved[natural] {
		p.reserved[natural] = true
		entry.DestinationPath = natural
		return entry, nil
	}

	dst, err := p.UniquePath(dir, file.Name())
	if err != nil {
		return entry, err
	}
	entry.DestinationPath = dst
	return entry, nil
}
