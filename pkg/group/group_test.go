package group

import (
	"reflect"
	"testing"

	"github.com/quidome/media-sorter/pkg/scan"
)

func media(paths ...string) []scan.MediaFile {
	opts := scan.DefaultOptions()
	out := make([]scan.MediaFile, 0, len(paths))
	for _, p := range paths {
		out = append(out, scan.NewMediaFile("/root", p, scan.Classify(p, opts)))
	}
	return out
}

func paths(files []scan.MediaFile) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

type pairView struct {
	Master     string
	Companions []string
}

func pairViews(pairs []Pair) []pairView {
	var out []pairView
	for _, p := range pairs {
		out = append(out, pairView{Master: p.Master.Path, Companions: paths(p.Companions)})
	}
	return out
}

func TestGroup(t *testing.T) {
	testCases := []struct {
		name        string
		files       []string
		wantPairs   []pairView
		wantSingles []string
	}{
		{
			name:        "live photo plus unrelated image",
			files:       []string{"/root/IMG_01.jpg", "/root/IMG_01.mov", "/root/IMG_02.jpg"},
			wantPairs:   []pairView{{Master: "/root/IMG_01.jpg", Companions: []string{"/root/IMG_01.mov"}}},
			wantSingles: []string{"/root/IMG_02.jpg"},
		},
		{
			name:        "only images and only videos stay single",
			files:       []string{"/root/a.jpg", "/root/a.png", "/root/b.mov", "/root/b.mp4"},
			wantSingles: []string{"/root/a.jpg", "/root/a.png", "/root/b.mov", "/root/b.mp4"},
		},
		{
			name:  "smallest image path is master and extra images are demoted",
			files: []string{"/root/x.png", "/root/x.mp4", "/root/x.heic", "/root/x.mov"},
			wantPairs: []pairView{{
				Master:     "/root/x.heic",
				Companions: []string{"/root/x.mov", "/root/x.mp4"},
			}},
			wantSingles: []string{"/root/x.png"},
		},
		{
			name:  "same stem in different directories does not pair",
			files: []string{"/root/a/IMG_1.jpg", "/root/b/IMG_1.mov", "/root/b/IMG_1.jpg"},
			wantPairs: []pairView{{
				Master:     "/root/b/IMG_1.jpg",
				Companions: []string{"/root/b/IMG_1.mov"},
			}},
			wantSingles: []string{"/root/a/IMG_1.jpg"},
		},
		{
			name:        "stems are case sensitive",
			files:       []string{"/root/img.jpg", "/root/IMG.mov"},
			wantSingles: []string{"/root/img.jpg", "/root/IMG.mov"},
		},
		{
			name:  "decomposed and composed stems bucket together",
			files: []string{"/root/Cafe\u0301.jpg", "/root/Caf\u00e9.mov"},
			wantPairs: []pairView{{
				Master:     "/root/Cafe\u0301.jpg",
				Companions: []string{"/root/Caf\u00e9.mov"},
			}},
		},
		{
			name:        "duplicate input paths collapse",
			files:       []string{"/root/a.jpg", "/root/a.jpg"},
			wantSingles: []string{"/root/a.jpg"},
		},
		{
			name:  "buckets keep first-seen order",
			files: []string{"/root/z.jpg", "/root/b.mov", "/root/b.jpg", "/root/a.mov", "/root/a.jpg"},
			wantPairs: []pairView{
				{Master: "/root/b.jpg", Companions: []string{"/root/b.mov"}},
				{Master: "/root/a.jpg", Companions: []string{"/root/a.mov"}},
			},
			wantSingles: []string{"/root/z.jpg"},
		},
		{
			name:        "directories are visited before their stems",
			files:       []string{"/root/a.jpg", "/root/sub/b.jpg", "/root/c.jpg"},
			wantSingles: []string{"/root/a.jpg", "/root/c.jpg", "/root/sub/b.jpg"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Group(media(tc.files...))

			if gotPairs := pairViews(got.Pairs); !reflect.DeepEqual(gotPairs, tc.wantPairs) {
				t.Fatalf("unexpected pairs\n got: %#v\nwant: %#v", gotPairs, tc.wantPairs)
			}
			if gotSingles := paths(got.Singles); !reflect.DeepEqual(gotSingles, tc.wantSingles) {
				t.Fatalf("unexpected singles\n got: %#v\nwant: %#v", gotSingles, tc.wantSingles)
			}
		})
	}
}

func TestGroup_EveryFileLandsExactlyOnce(t *testing.T) {
	files := media(
		"/root/a.jpg", "/root/a.mov", "/root/a.png",
		"/root/b.mov",
		"/root/c.heic", "/root/c.mp4", "/root/c.mov",
		"/root/sub/a.jpg", "/root/sub/a.mp4",
	)

	got := Group(files)

	counts := make(map[string]int)
	for _, p := range got.Pairs {
		counts[p.Master.Path]++
		for _, v := range p.Companions {
			counts[v.Path]++
		}
	}
	for _, s := range got.Singles {
		counts[s.Path]++
	}

	for _, f := range files {
		if counts[f.Path] != 1 {
			t.Fatalf("%s appears %d times", f.Path, counts[f.Path])
		}
	}
	if len(counts) != len(files) {
		t.Fatalf("expected %d distinct paths, got %d", len(files), len(counts))
	}
	if got.Len() != 5 {
		t.Fatalf("expected 3 pairs + 2 singles, got %d units", got.Len())
	}
}
