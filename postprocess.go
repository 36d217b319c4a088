package rscoco

// Filtering and splitting of converted datasets.

import (
	"fmt"
	"log"
	"math/rand"
)

// FilterOptions selects the annotations and images kept by Dataset.Filter. Zero values disable
// the respective filter.
type FilterOptions struct {
	Categories []string // Category names to keep. Other categories are removed from the table.

	MinWidth  float64 // Minimum bbox width in pixels.
	MinHeight float64 // Minimum bbox height in pixels.

	// The bbox aspect ratio width/height must be in [MinAspectRatio, MaxAspectRatio].
	MinAspectRatio float64
	MaxAspectRatio float64

	RequireAnnotations bool // Remove images left without annotations.
}

// Filter removes the annotations, categories and images that do not pass opts and renumbers the
// remaining annotations. It returns the number of removed annotations and images.
func (ds *Dataset) Filter(opts FilterOptions) (removedAnnotations, removedImages int) {
	if len(opts.Categories) > 0 {
		keep := make(map[string]bool, len(opts.Categories))
		for _, name := range opts.Categories {
			keep[name] = true
		}
		categories := ds.Categories[:0]
		for _, c := range ds.Categories {
			if keep[c.Name] {
				categories = append(categories, c)
			}
		}
		ds.Categories = categories
	}
	categories := make(map[int]bool, len(ds.Categories))
	for _, c := range ds.Categories {
		categories[c.ID] = true
	}

	numAnnotations := len(ds.Annotations)
	labeled := make(map[int]bool, len(ds.Images))
	kept := ds.Annotations[:0]
	for _, a := range ds.Annotations {
		if !categories[a.CategoryID] || !opts.passesSize(a.BBox) {
			continue
		}
		labeled[a.ImageID] = true
		kept = append(kept, a)
	}
	ds.Annotations = kept
	ds.renumberAnnotations()

	numImages := len(ds.Images)
	if opts.RequireAnnotations {
		images := ds.Images[:0]
		for _, img := range ds.Images {
			if labeled[img.ID] {
				images = append(images, img)
			}
		}
		ds.Images = images
	}

	removedAnnotations = numAnnotations - len(ds.Annotations)
	removedImages = numImages - len(ds.Images)
	log.Printf("Filtered out %d annotations and %d images", removedAnnotations, removedImages)

	return removedAnnotations, removedImages
}

func (opts FilterOptions) passesSize(b BBox) bool {
	width, height := b.Width(), b.Height()
	if width < opts.MinWidth || height < opts.MinHeight {
		return false
	}
	if opts.MinAspectRatio == 0 && opts.MaxAspectRatio == 0 {
		return true
	}
	if height == 0 {
		return false
	}
	ratio := width / height
	return (opts.MinAspectRatio == 0 || ratio >= opts.MinAspectRatio) &&
		(opts.MaxAspectRatio == 0 || ratio <= opts.MaxAspectRatio)
}

// Split randomly distributes the images of ds, with their annotations, over several datasets.
//
// The cumulativeSplits specify the cumulative distribution in percent according to which the
// images are split; the last value must be 100. Every returned dataset shares the info, license
// and category tables of ds and has dense annotation ids. The same seed yields the same split.
func (ds *Dataset) Split(cumulativeSplits []int, seed int64) ([]*Dataset, error) {
	if len(cumulativeSplits) == 0 || cumulativeSplits[len(cumulativeSplits)-1] != 100 {
		return nil, fmt.Errorf("the split percentages do not add up to 100")
	}
	prev := 0
	for _, s := range cumulativeSplits {
		if s < prev {
			return nil, fmt.Errorf("the split percentages must be cumulative, got %v",
				cumulativeSplits)
		}
		prev = s
	}

	datasets := make([]*Dataset, len(cumulativeSplits))
	for i := range datasets {
		datasets[i] = &Dataset{
			Info:       ds.Info,
			Licenses:   ds.Licenses,
			Categories: ds.Categories,
		}
	}

	byImage := make(map[int][]Annotation, len(ds.Images))
	for _, a := range ds.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, img := range ds.Images {
		r := rng.Intn(100)
		for i, s := range cumulativeSplits {
			if r < s {
				d := datasets[i]
				d.Images = append(d.Images, img)
				for _, a := range byImage[img.ID] {
					d.addAnnotation(a)
				}
				break
			}
		}
	}

	return datasets, nil
}
