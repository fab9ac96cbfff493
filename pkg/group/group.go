// Package group pairs companion videos with the photo they belong to.
//
// A Live Photo export leaves IMG_0001.HEIC and IMG_0001.MOV side by side. Files sharing a
// parent directory and filename stem form a bucket; a bucket holding both images and videos
// becomes a Pair, everything else becomes a single.
package group

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/quidome/media-sorter/pkg/scan"
)

// Pair is a master image with the videos that share its directory and stem.
type Pair struct {
	Master     scan.MediaFile
	Companions []scan.MediaFile
}

// Result is the partition of an input set into pairs and singles.
type Result struct {
	Pairs   []Pair
	Singles []scan.MediaFile
}

// Len returns the number of units a caller processes: one per pair and one per single.
func (r Result) Len() int {
	return len(r.Pairs) + len(r.Singles)
}

// Group partitions files. Directories are visited in the order they first appear in files
// and, within a directory, stems in the order they first appear. The master of a bucket is its
// lexicographically smallest image path and companions are sorted by path. Every input path
// ends up in exactly one place.
func Group(files []scan.MediaFile) Result {
	dirIndex := make(map[string]int)
	var dirs []*directory

	for _, f := range files {
		idx, ok := dirIndex[f.Dir]
		if !ok {
			idx = len(dirs)
			dirIndex[f.Dir] = idx
			dirs = append(dirs, &directory{stems: make(map[string]int)})
		}
		dirs[idx].add(norm.NFC.String(f.Stem), f)
	}

	var buckets [][]scan.MediaFile
	for _, d := range dirs {
		buckets = append(buckets, d.buckets...)
	}

	var res Result
	var singles []scan.MediaFile
	for _, items := range buckets {
		var images, videos []scan.MediaFile
		for _, f := range items {
			switch f.Kind {
			case scan.KindImage:
				images = append(images, f)
			case scan.KindVideo:
				videos = append(videos, f)
			}
		}

		if len(images) == 0 || len(videos) == 0 {
			singles = append(singles, items...)
			continue
		}

		sortByPath(images)
		sortByPath(videos)
		res.Pairs = append(res.Pairs, Pair{Master: images[0], Companions: videos})
		singles = append(singles, images[1:]...)
	}

	inPairs := make(map[string]bool)
	for _, p := range res.Pairs {
		inPairs[p.Master.Path] = true
		for _, v := range p.Companions {
			inPairs[v.Path] = true
		}
	}

	seen := make(map[string]bool, len(singles))
	for _, f := range singles {
		if seen[f.Path] || inPairs[f.Path] {
			continue
		}
		seen[f.Path] = true
		res.Singles = append(res.Singles, f)
	}
	return res
}

type directory struct {
	stems   map[string]int
	buckets [][]scan.MediaFile
}

func (d *directory) add(stem string, f scan.MediaFile) {
	if idx, ok := d.stems[stem]; ok {
		d.buckets[idx] = append(d.buckets[idx], f)
		return
	}
	d.stems[stem] = len(d.buckets)
	d.buckets = append(d.buckets, []scan.MediaFile{f})
}

func sortByPath(files []scan.MediaFile) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
