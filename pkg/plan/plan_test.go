package plan

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/quidome/media-sorter/pkg/createdat"
	"github.com/quidome/media-sorter/pkg/scan"
)

func TestFolderName(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{t: time.Date(2023, 11, 15, 10, 30, 0, 0, time.UTC), want: "2023-11"},
		{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: "2024-01"},
		{t: time.Date(987, 3, 1, 0, 0, 0, 0, time.UTC), want: "0987-03"},
	}
	for _, tt := range tests {
		if got := FolderName(tt.t); got != tt.want {
			t.Errorf("FolderName(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestPlanner_Folder(t *testing.T) {
	p := NewPlanner(afero.NewMemMapFs(), "")

	dated := createdat.Result{CapturedAt: time.Date(2021, 7, 4, 0, 0, 0, 0, time.UTC), Provenance: createdat.ProvenanceFilesystem}
	if got := p.Folder(dated); got != "2021-07" {
		t.Fatalf("Folder() = %q, want 2021-07", got)
	}

	undated := createdat.Result{Provenance: createdat.ProvenanceNone}
	if got := p.Folder(undated); got != DefaultUndatedFolder {
		t.Fatalf("Folder() = %q, want %q", got, DefaultUndatedFolder)
	}

	custom := NewPlanner(afero.NewMemMapFs(), "no-date")
	if got := custom.Folder(undated); got != "no-date" {
		t.Fatalf("Folder() = %q, want no-date", got)
	}
}

func TestPlanner_UniquePath(t *testing.T) {
	dir := filepath.Join("/dest", "2023-11")

	tests := []struct {
		name     string
		filename string
		existing []string
		want     string
	}{
		{
			name:     "no collision",
			filename: "photo.jpg",
			want:     filepath.Join(dir, "photo.jpg"),
		},
		{
			name:     "first collision gets _1",
			filename: "photo.jpg",
			existing: []string{"photo.jpg"},
			want:     filepath.Join(dir, "photo_1.jpg"),
		},
		{
			name:     "second collision gets _2",
			filename: "photo.jpg",
			existing: []string{"photo.jpg", "photo_1.jpg"},
			want:     filepath.Join(dir, "photo_2.jpg"),
		},
		{
			name:     "gaps are filled",
			filename: "photo.jpg",
			existing: []string{"photo.jpg", "photo_2.jpg"},
			want:     filepath.Join(dir, "photo_1.jpg"),
		},
		{
			name:     "only the last extension is split",
			filename: "archive.tar.gz",
			existing: []string{"archive.tar.gz"},
			want:     filepath.Join(dir, "archive.tar_1.gz"),
		},
		{
			name:     "file without extension with collision",
			filename: "README",
			existing: []string{"README"},
			want:     filepath.Join(dir, "README_1"),
		},
		{
			name:     "directory occupies the name",
			filename: "clip.mov",
			existing: []string{"clip.mov/"},
			want:     filepath.Join(dir, "clip_1.mov"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			for _, name := range tt.existing {
				path := filepath.Join(dir, name)
				if name[len(name)-1] == '/' {
					if err := fsys.MkdirAll(path, 0o755); err != nil {
						t.Fatalf("mkdir: %v", err)
					}
					continue
				}
				if err := fsys.MkdirAll(dir, 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				if err := afero.WriteFile(fsys, path, []byte("x"), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}

			got, err := NewPlanner(fsys, "").UniquePath(dir, tt.filename)
			if err != nil {
				t.Fatalf("UniquePath: %v", err)
			}
			if got != tt.want {
				t.Errorf("UniquePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanner_UniquePathStrictlyIncreasing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/dest/2023-11"
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(dir, "photo.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := NewPlanner(fsys, "")
	expected := []string{
		filepath.Join(dir, "photo_1.jpg"),
		filepath.Join(dir, "photo_2.jpg"),
		filepath.Join(dir, "photo_3.jpg"),
	}

	for i, want := range expected {
		got, err := p.UniquePath(dir, "photo.jpg")
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if got != want {
			t.Errorf("iteration %d: UniquePath() = %v, want %v", i, got, want)
		}
		exists, _ := afero.Exists(fsys, got)
		if exists {
			t.Errorf("iteration %d: returned existing path %v", i, got)
		}
	}
}

func TestPlanner_UniquePathSeesFilesCreatedMidRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/dest/2023-11"
	p := NewPlanner(fsys, "")

	first, err := p.UniquePath(dir, "a.jpg")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}

	// Another writer drops a file where the next suffix would go.
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(dir, "a_1.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	second, err := p.UniquePath(dir, "a.jpg")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}
	if first != filepath.Join(dir, "a.jpg") || second != filepath.Join(dir, "a_2.jpg") {
		t.Fatalf("unexpected paths %v, %v", first, second)
	}
}

func TestPlanner_UniquePathReusesVacatedPath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/dest/2021-03"
	occupied := filepath.Join(dir, "photo.png")
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fsys, occupied, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := NewPlanner(fsys, "")

	p.Vacate(occupied + "/")

	first, err := p.UniquePath(dir, "photo.png")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}
	second, err := p.UniquePath(dir, "photo.png")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}
	if first != occupied || second != filepath.Join(dir, "photo_1.png") {
		t.Fatalf("unexpected paths %v, %v", first, second)
	}
}

func TestPlanner_Plan(t *testing.T) {
	dated := createdat.Result{CapturedAt: time.Date(2023, 11, 15, 10, 30, 0, 0, time.UTC), Provenance: createdat.ProvenanceMetadata}

	t.Run("move into dated folder", func(t *testing.T) {
		p := NewPlanner(afero.NewMemMapFs(), "")
		file := scan.NewMediaFile("/src", "/src/sub/IMG_1.jpg", scan.KindImage)

		entry, err := p.Plan("/src", file, dated, ActionMove)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if entry.Folder != "2023-11" || entry.DestinationPath != filepath.Join("/src", "2023-11", "IMG_1.jpg") {
			t.Fatalf("unexpected entry %+v", entry)
		}
		if entry.Name() != "IMG_1.jpg" {
			t.Fatalf("unexpected name %q", entry.Name())
		}
	})

	t.Run("move already in place stays put", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		path := filepath.Join("/src", "2023-11", "IMG_1.jpg")
		if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := afero.WriteFile(fsys, path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		p := NewPlanner(fsys, "")

		entry, err := p.Plan("/src", scan.NewMediaFile("/src", path, scan.KindImage), dated, ActionMove)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if entry.DestinationPath != path {
			t.Fatalf("expected in-place destination, got %v", entry.DestinationPath)
		}
	})

	t.Run("copy already in place gets a suffix", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		path := filepath.Join("/src", "2023-11", "IMG_1.jpg")
		if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := afero.WriteFile(fsys, path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		p := NewPlanner(fsys, "")

		entry, err := p.Plan("/src", scan.NewMediaFile("/src", path, scan.KindImage), dated, ActionCopy)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if entry.DestinationPath != filepath.Join("/src", "2023-11", "IMG_1_1.jpg") {
			t.Fatalf("unexpected destination %v", entry.DestinationPath)
		}
	})

	t.Run("skip has no destination", func(t *testing.T) {
		p := NewPlanner(afero.NewMemMapFs(), "")
		file := scan.NewMediaFile("/src", "/src/a.jpg", scan.KindImage)

		entry, err := p.Plan("/src", file, createdat.Result{Provenance: createdat.ProvenanceNone}, ActionSkip)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if entry.DestinationPath != "" || entry.Folder != DefaultUndatedFolder {
			t.Fatalf("unexpected entry %+v", entry)
		}
	})
}
