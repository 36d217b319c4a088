package rscoco

// Dataset summaries.

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CategorySummary describes the annotations of one category.
type CategorySummary struct {
	Category   Category
	Count      int
	MeanArea   float64
	MedianArea float64
	StdDevArea float64
	MinArea    float64
	MaxArea    float64
}

// Summary describes the contents of a dataset.
type Summary struct {
	Images      int
	Annotations int
	Unlabeled   int // Images without annotations.
	Categories  []CategorySummary
}

// Summarize computes per-category annotation counts and bbox area statistics for ds. Categories
// are listed in id order, including those without annotations.
func Summarize(ds *Dataset) Summary {
	areas := make(map[int][]float64, len(ds.Categories))
	labeled := make(map[int]bool, len(ds.Images))
	for _, a := range ds.Annotations {
		areas[a.CategoryID] = append(areas[a.CategoryID], a.BBox.Area())
		labeled[a.ImageID] = true
	}

	s := Summary{
		Images:      len(ds.Images),
		Annotations: len(ds.Annotations),
		Categories:  make([]CategorySummary, 0, len(ds.Categories)),
	}
	for _, img := range ds.Images {
		if !labeled[img.ID] {
			s.Unlabeled++
		}
	}

	for _, c := range ds.Categories {
		cs := CategorySummary{Category: c}
		if a := areas[c.ID]; len(a) > 0 {
			sort.Float64s(a)
			cs.Count = len(a)
			if len(a) > 1 {
				cs.MeanArea, cs.StdDevArea = stat.MeanStdDev(a, nil)
			} else {
				cs.MeanArea = a[0]
			}
			cs.MedianArea = stat.Quantile(0.5, stat.Empirical, a, nil)
			cs.MinArea = floats.Min(a)
			cs.MaxArea = floats.Max(a)
		}
		s.Categories = append(s.Categories, cs)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Category.ID < s.Categories[j].Category.ID
	})

	return s
}

// Write prints s as a table to w.
func (s Summary) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d images (%d without annotations), %d annotations\n\n",
		s.Images, s.Unlabeled, s.Annotations); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "id\tname\tcount\tmean area\tmedian area\tstd dev\tmin\tmax\t")
	for _, c := range s.Categories {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%.1f\t%.1f\t%.0f\t%.0f\t\n", c.Category.ID,
			c.Category.Name, c.Count, c.MeanArea, c.MedianArea, c.StdDevArea, c.MinArea, c.MaxArea)
	}
	return tw.Flush()
}
