package rscoco

// Clipping of bounding boxes to the bounds of their image.

// ClipStats counts the changes made by Dataset.ClipToImages.
type ClipStats struct {
	Low     int // Boxes with a negative x or y that were moved onto the image.
	High    int // Boxes extending beyond the right or bottom image edge that were shortened.
	Removed int // Boxes left with no area, which were deleted.
}

// ClipBBox clips b to an image of the given width and height.
//
// A negative x (or y) is set to 0 and the width (or height) reduced by the same amount. A box
// extending past the right (or bottom) edge is shortened to end on it. Both axes are clipped before
// the result is judged: ok is false when the clipped box has no positive width and height, i.e.
// it was entirely outside the image.
func ClipBBox(b BBox, width, height int) (clipped BBox, low, high, ok bool) {
	clipped = b
	if clipped[0] < 0 {
		clipped[2] += clipped[0]
		clipped[0] = 0
		low = true
	}
	if clipped[1] < 0 {
		clipped[3] += clipped[1]
		clipped[1] = 0
		low = true
	}

	w, h := float64(width), float64(height)
	if clipped[0]+clipped[2] > w {
		clipped[2] = w - clipped[0]
		high = true
	}
	if clipped[1]+clipped[3] > h {
		clipped[3] = h - clipped[1]
		high = true
	}

	ok = clipped[2] > 0 && clipped[3] > 0
	return clipped, low, high, ok
}

// ClipToImages clips every annotation bbox to the bounds of its image and deletes the annotations
// that end up without area. Areas of clipped boxes are recomputed and the remaining annotations
// are renumbered densely.
//
// This needs the dimensions of all images, so it runs as a pass over the complete dataset.
// Annotations referencing unknown images are left untouched.
func (ds *Dataset) ClipToImages() ClipStats {
	var stats ClipStats
	index := ds.imageIndex()

	kept := ds.Annotations[:0]
	for _, a := range ds.Annotations {
		i, found := index[a.ImageID]
		if !found {
			kept = append(kept, a)
			continue
		}
		img := ds.Images[i]

		b, low, high, ok := ClipBBox(a.BBox, img.Width, img.Height)
		if low {
			stats.Low++
		}
		if high {
			stats.High++
		}
		if !ok {
			stats.Removed++
			continue
		}
		if b != a.BBox {
			a.BBox = b
			a.Area = b.Area()
		}
		kept = append(kept, a)
	}
	ds.Annotations = kept
	ds.renumberAnnotations()

	return stats
}
