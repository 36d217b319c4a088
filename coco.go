package rscoco

// The COCO detection document that every converter produces.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// ErrInvalidDataset is wrapped by the errors returned from Dataset.Validate.
var ErrInvalidDataset = errors.New("invalid dataset")

// Info is the COCO "info" block.
type Info struct {
	Year        interface{} `json:"year,omitempty"` // Int or string, as published by the dataset.
	Version     string      `json:"version,omitempty"`
	Description string      `json:"description,omitempty"`
	Contributor string      `json:"contributor,omitempty"`
	URL         string      `json:"url,omitempty"`
	Paper       string      `json:"paper,omitempty"`
	DateCreated string      `json:"date_created,omitempty"`
}

// License is an image source or usage license. Licenses are deduplicated by name.
type License struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	URL  *string `json:"url"`
}

// Image describes a single raster of the dataset.
type Image struct {
	ID       int      `json:"id"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	FileName string   `json:"file_name"`
	License  *int     `json:"license,omitempty"`
	GSD      *float64 `json:"gsd,omitempty"` // Ground sample distance in meters per pixel.

	Path string `json:"-"` // The raster on disk, when known.
}

// Category is a COCO object category.
type Category struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// Annotation is a single object instance.
type Annotation struct {
	ID         int     `json:"id"`
	ImageID    int     `json:"image_id"`
	CategoryID int     `json:"category_id"`
	Area       float64 `json:"area"`
	BBox       BBox    `json:"bbox"`
	IsCrowd    int     `json:"iscrowd"`

	Segmentation Segmentation `json:"segmentation,omitempty"` // Raw absolute points (FAIR1M).
	Difficulty   *int         `json:"difficulty,omitempty"`   // DOTA difficulty flag.
	BBoxGeo      *BBox        `json:"bbox_geos,omitempty"`    // Geographic bbox (xView).
}

// Segmentation is a polygon given as absolute [x, y] points.
//
// Decoding rejects other shapes, such as the flattened [[x1, y1, x2, y2, ...]] polygons or RLE
// masks written by other COCO tools, instead of silently truncating them.
type Segmentation [][2]float64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Segmentation) UnmarshalJSON(data []byte) error {
	var points [][]float64
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("segmentation must be a list of [x, y] points: %w", err)
	}
	if points == nil {
		*s = nil
		return nil
	}

	seg := make(Segmentation, len(points))
	for i, p := range points {
		if len(p) != 2 {
			return fmt.Errorf("segmentation point %d has %d values, expected [x, y]", i, len(p))
		}
		seg[i] = [2]float64{p[0], p[1]}
	}
	*s = seg
	return nil
}

// Dataset is a complete COCO document.
type Dataset struct {
	Info        Info         `json:"info"`
	Licenses    []License    `json:"licenses"`
	Images      []Image      `json:"images"`
	Categories  []Category   `json:"categories"`
	Annotations []Annotation `json:"annotations"`
}

// imageIndex maps image ids to their index in ds.Images.
func (ds *Dataset) imageIndex() map[int]int {
	index := make(map[int]int, len(ds.Images))
	for i, img := range ds.Images {
		index[img.ID] = i
	}
	return index
}

// addAnnotation appends a with the next sequential annotation id.
func (ds *Dataset) addAnnotation(a Annotation) {
	a.ID = len(ds.Annotations)
	ds.Annotations = append(ds.Annotations, a)
}

// ensureSlices replaces nil tables with empty ones, so they encode as [] rather than null.
func (ds *Dataset) ensureSlices() {
	if ds.Licenses == nil {
		ds.Licenses = []License{}
	}
	if ds.Images == nil {
		ds.Images = []Image{}
	}
	if ds.Categories == nil {
		ds.Categories = []Category{}
	}
	if ds.Annotations == nil {
		ds.Annotations = []Annotation{}
	}
}

// renumberAnnotations reassigns dense annotation ids, starting at 0, in slice order.
func (ds *Dataset) renumberAnnotations() {
	for i := range ds.Annotations {
		ds.Annotations[i].ID = i
	}
}

// Validate checks the referential integrity of ds: unique image and category ids, dense annotation
// ids starting at 0, resolvable image and category references and non-negative bbox sizes.
func (ds *Dataset) Validate() error {
	images := make(map[int]bool, len(ds.Images))
	for _, img := range ds.Images {
		if images[img.ID] {
			return fmt.Errorf("%w: duplicate image id %d", ErrInvalidDataset, img.ID)
		}
		images[img.ID] = true
	}

	categories := make(map[int]bool, len(ds.Categories))
	for _, c := range ds.Categories {
		if categories[c.ID] {
			return fmt.Errorf("%w: duplicate category id %d", ErrInvalidDataset, c.ID)
		}
		categories[c.ID] = true
	}

	for i, a := range ds.Annotations {
		switch {
		case a.ID != i:
			return fmt.Errorf("%w: annotation at index %d has id %d", ErrInvalidDataset, i, a.ID)
		case !images[a.ImageID]:
			return fmt.Errorf("%w: annotation %d references unknown image %d",
				ErrInvalidDataset, a.ID, a.ImageID)
		case !categories[a.CategoryID]:
			return fmt.Errorf("%w: annotation %d references unknown category %d",
				ErrInvalidDataset, a.ID, a.CategoryID)
		case a.BBox.Width() < 0 || a.BBox.Height() < 0:
			return fmt.Errorf("%w: annotation %d has negative bbox size %v",
				ErrInvalidDataset, a.ID, a.BBox)
		}
	}

	return nil
}

// WriteDataset validates ds and writes it as JSON to path. The document is written to a temporary
// file next to path first and then renamed, so an existing file at path is only replaced by a
// complete document.
//
// A non-empty indent pretty-prints the output.
func WriteDataset(path string, ds *Dataset, indent string) (err error) {
	ds.ensureSlices()
	if err := ds.Validate(); err != nil {
		return err
	}

	var enc []byte
	if indent != "" {
		enc, err = json.MarshalIndent(ds, "", indent)
	} else {
		enc, err = json.Marshal(ds)
	}
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", path, err)
	}
	return nil
}

// ReadDataset reads and parses the COCO document at path.
func ReadDataset(path string) (*Dataset, error) {
	enc, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ds Dataset
	if err := json.Unmarshal(enc, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse COCO input from %q: %w", path, err)
	}
	return &ds, nil
}

// writeFileAtomic writes data to a temporary file in the directory of path and renames it to path.
// The temporary file is removed if any step fails.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := ioutil.TempFile(dir, "."+base+".tmp-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

func intPtr(v int) *int {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
