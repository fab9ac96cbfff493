// Package organize runs a relocation pass over a set of media files: it groups Live Photo
// companions with their image, resolves a capture date per group, plans a collision-free
// destination under <destination>/<YYYY-MM>/ and then moves or copies each file, or only
// reports what it would do when simulating.
//
// Items are processed by a single worker, pairs first and singles second. A failure on one
// item is recorded in its Outcome and never stops the run.
package organize

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/quidome/media-sorter/pkg/createdat"
	"github.com/quidome/media-sorter/pkg/group"
	"github.com/quidome/media-sorter/pkg/plan"
	"github.com/quidome/media-sorter/pkg/scan"
	"github.com/quidome/media-sorter/pkg/transfer"
)

// ErrInvalidRoot is returned when the source root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid root")

// Options configures an Engine.
type Options struct {
	// Destination is the directory receiving the dated folders. Empty means the source root.
	Destination string

	Simulate       bool
	Copy           bool
	IncludeUndated bool

	// UndatedFolder names the folder for files without a date. Empty selects
	// plan.DefaultUndatedFolder.
	UndatedFolder string

	Metadata createdat.MetadataReader
	Location *time.Location

	Logger   *slog.Logger
	Observer Observer
}

// Engine relocates media files into dated folders on an afero filesystem.
type Engine struct {
	fs       afero.Fs
	opts     Options
	logger   *slog.Logger
	observer Observer
}

// New returns an Engine working on fsys.
func New(fsys afero.Fs, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{fs: fsys, opts: opts, logger: logger, observer: observer}
}

// Organize validates source, scans it with scanOpts and runs the plan.
func (e *Engine) Organize(source string, scanOpts scan.Options) (Report, error) {
	source = filepath.Clean(source)
	if err := e.checkRoot(source); err != nil {
		return Report{}, err
	}
	if dest := e.opts.Destination; dest != "" {
		if info, err := e.fs.Stat(dest); err == nil && !info.IsDir() {
			return Report{}, fmt.Errorf("%w: destination %s is not a directory", ErrInvalidRoot, dest)
		}
	}

	files, err := scan.Scan(e.fs, source, scanOpts)
	if err != nil {
		return Report{}, fmt.Errorf("scan %s: %w", source, err)
	}
	e.logger.Info("scan complete", slog.String("source", source), slog.Int("files", len(files)))

	return e.Run(source, files), nil
}

func (e *Engine) checkRoot(source string) error {
	ok, err := afero.IsDir(e.fs, source)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, source, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, source)
	}
	return nil
}

// Run processes files found under root. It always completes; per-item failures are
// reported as ActionError outcomes.
func (e *Engine) Run(root string, files []scan.MediaFile) Report {
	groups := group.Group(files)
	r := &run{
		engine:  e,
		planner: plan.NewPlanner(e.fs, e.opts.UndatedFolder),
		dest:    e.destination(root),
		report: Report{
			Found:   len(files),
			Pairs:   len(groups.Pairs),
			Singles: len(groups.Singles),
		},
	}

	e.observer.OnStart(len(files))

	for _, p := range groups.Pairs {
		r.pair(p)
	}
	for _, f := range groups.Singles {
		r.single(f)
	}

	e.logger.Info("run complete",
		slog.Bool("simulate", e.opts.Simulate),
		slog.Int("files", len(files)),
		slog.Int("relocated", r.report.Count(ActionMove)+r.report.Count(ActionCopy)),
		slog.Int("skipped", r.report.SkippedFiles()),
		slog.Int("errors", r.report.Count(ActionError)),
	)
	return r.report
}

func (e *Engine) destination(root string) string {
	if e.opts.Destination != "" {
		return filepath.Clean(e.opts.Destination)
	}
	return filepath.Clean(root)
}

func (e *Engine) action() Action {
	if e.opts.Copy {
		return ActionCopy
	}
	return ActionMove
}

func (e *Engine) dateOptions() createdat.Options {
	return createdat.Options{
		Location: e.opts.Location,
		Metadata: e.opts.Metadata,
		Logger:   e.logger,
	}
}

// run holds the state owned by one Run invocation.
type run struct {
	engine  *Engine
	planner *plan.Planner
	dest    string
	report  Report
}

func (r *run) pair(p group.Pair) {
	e := r.engine
	res := createdat.Determine(e.fs, p.Master, e.dateOptions())

	if !res.Known() && !e.opts.IncludeUndated {
		r.emit(Outcome{
			Source:     p.Master.Path,
			Rel:        p.Master.Rel,
			Provenance: createdat.ProvenanceNone,
			Action:     ActionSkip,
			Simulated:  e.opts.Simulate,
			Companions: len(p.Companions),
		})
		return
	}

	master := r.relocate(p.Master, res, "")
	if master.Action == ActionError {
		for _, v := range p.Companions {
			r.emit(Outcome{
				Source:     v.Path,
				Rel:        v.Rel,
				Provenance: res.Provenance,
				Action:     ActionError,
				Simulated:  e.opts.Simulate,
				Master:     p.Master.Rel,
				Size:       v.Size,
				Err:        fmt.Errorf("not relocated: paired photo %s failed", p.Master.Rel),
			})
		}
		return
	}

	for _, v := range p.Companions {
		r.relocate(v, res, p.Master.Rel)
	}
}

func (r *run) single(f scan.MediaFile) {
	e := r.engine
	res := createdat.Determine(e.fs, f, e.dateOptions())

	if !res.Known() && !e.opts.IncludeUndated {
		r.emit(Outcome{
			Source:     f.Path,
			Rel:        f.Rel,
			Provenance: createdat.ProvenanceNone,
			Action:     ActionSkip,
			Simulated:  e.opts.Simulate,
		})
		return
	}

	r.relocate(f, res, "")
}

// relocate plans f under the folder implied by res and, unless simulating, executes it.
func (r *run) relocate(f scan.MediaFile, res createdat.Result, master string) Outcome {
	e := r.engine
	out := Outcome{
		Source:     f.Path,
		Rel:        f.Rel,
		Provenance: res.Provenance,
		Action:     e.action(),
		Simulated:  e.opts.Simulate,
		Master:     master,
		Size:       f.Size,
	}

	entry, err := r.planner.Plan(r.dest, f, res, plan.Action(out.Action))
	if err != nil {
		return r.fail(out, err)
	}
	out.Folder = entry.Folder
	out.Name = entry.Name()
	out.Destination = entry.DestinationPath

	e.logger.Debug("planned",
		slog.String("source", f.Rel),
		slog.String("destination", entry.DestinationPath),
		slog.String("provenance", string(res.Provenance)),
		slog.String("tag", res.Tag),
	)

	if !e.opts.Simulate {
		if err := r.execute(entry); err != nil {
			return r.fail(out, err)
		}
	}
	if entry.Action == plan.ActionMove && entry.DestinationPath != filepath.Clean(entry.SourcePath) {
		r.planner.Vacate(entry.SourcePath)
	}

	r.emit(out)
	return out
}

func (r *run) execute(entry plan.Entry) error {
	fsys := r.engine.fs
	if err := transfer.EnsureDir(fsys, filepath.Dir(entry.DestinationPath)); err != nil {
		return err
	}
	switch entry.Action {
	case plan.ActionCopy:
		return transfer.Copy(fsys, entry.SourcePath, entry.DestinationPath)
	case plan.ActionMove:
		return transfer.Move(fsys, entry.SourcePath, entry.DestinationPath)
	default:
		return fmt.Errorf("unexpected action %q", entry.Action)
	}
}

func (r *run) fail(out Outcome, err error) Outcome {
	out.Action = ActionError
	out.Err = err
	r.engine.logger.Warn("relocation failed",
		slog.String("source", out.Rel),
		slog.String("destination", out.Destination),
		slog.Any("error", err),
	)
	r.emit(out)
	return out
}

func (r *run) emit(o Outcome) {
	r.report.Outcomes = append(r.report.Outcomes, o)
	r.engine.observer.OnOutcome(o)
}
