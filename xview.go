package rscoco

// xView specific functionality.

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

const xViewLicenseID = 1

var xViewInfo = Info{
	Year:        "2018",
	Version:     "1",
	Description: "xView",
	Contributor: "DIUx",
	DateCreated: "03/17/2020",
}

// XViewProperties are the properties of an xView GeoJSON feature that are used for conversion.
type XViewProperties struct {
	BoundsImcoords string `json:"bounds_imcoords"` // Pixel box "x1,y1,x2,y2".
	TypeID         int    `json:"type_id"`         // Category id.
	ImageID        string `json:"image_id"`        // Image file name, e.g. "2355.tif".
}

// XViewGeometry is the polygon geometry of an xView feature.
type XViewGeometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// XViewFeature is a single object in the xView GeoJSON feature collection.
type XViewFeature struct {
	Properties XViewProperties `json:"properties"`
	Geometry   XViewGeometry   `json:"geometry"`
}

// XViewFeatureCollection is the xView label file.
type XViewFeatureCollection struct {
	Features []XViewFeature `json:"features"`
}

// FromXView converts the xView GeoJSON labels at geojsonPath to a COCO dataset. The categories are
// read from classesPath ("id:name" lines) and the images are found in imageDir or its direct
// subdirectories.
//
// Bounding boxes are clipped to their image, and annotations entirely outside their image are
// removed, regardless of opts.Clip.
func FromXView(geojsonPath, classesPath, imageDir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	categories, err := LoadCategoryFile(classesPath)
	if err != nil {
		return nil, err
	}

	images, err := loadImages(imageDir, true, intPtr(xViewLicenseID), opts)
	if err != nil {
		return nil, err
	}

	collection, err := readXViewFeatures(geojsonPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Parsing %d xView features", len(collection.Features))

	res := &Result{Dataset: &Dataset{
		Info:     xViewInfo,
		Licenses: []License{{ID: xViewLicenseID, Name: "xView"}},
	}}

	bar := newProgressBar(opts.Progress, len(collection.Features), "Converting xView features")
	for i, f := range collection.Features {
		_ = bar.Add(1)

		img, found := images.byName(f.Properties.ImageID)
		if !found {
			res.Warnings.add(MissingImage, geojsonPath, "feature %d: no image named %q", i,
				f.Properties.ImageID)
			continue
		}
		if !categories.Has(f.Properties.TypeID) {
			res.Warnings.add(UnknownCategory, geojsonPath, "feature %d: unknown type id %d", i,
				f.Properties.TypeID)
			continue
		}

		a, err := convertXViewFeature(f)
		if err != nil {
			return nil, fmt.Errorf("%s: feature %d: %w", geojsonPath, i, err)
		}
		a.ImageID = img.ID
		res.Dataset.addAnnotation(a)
	}
	_ = bar.Finish()

	res.Dataset.Images = images.images
	res.Dataset.Categories = categories.List()
	res.Clip = res.Dataset.ClipToImages()
	log.Printf("Corrected %d boxes with coords below 0 and %d with coords larger than image",
		res.Clip.Low, res.Clip.High)
	log.Printf("Removed %d annotations", res.Clip.Removed)

	return res, nil
}

// readXViewFeatures decodes the feature collection at path.
func readXViewFeatures(path string) (c XViewFeatureCollection, err error) {
	file, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer closeWithErrCheck(file, &err)

	if err := json.NewDecoder(file).Decode(&c); err != nil {
		return c, fmt.Errorf("failed to parse xView input from %q: %w", path, err)
	}
	return c, nil
}

// convertXViewFeature converts the boxes and category of f. The image id is left unset.
func convertXViewFeature(f XViewFeature) (Annotation, error) {
	bbox, err := parseXViewBounds(f.Properties.BoundsImcoords)
	if err != nil {
		return Annotation{}, err
	}

	if len(f.Geometry.Coordinates) == 0 {
		return Annotation{}, fmt.Errorf("no coordinates in %s geometry", f.Geometry.Type)
	}
	ring := make([]Point, len(f.Geometry.Coordinates[0]))
	for i, c := range f.Geometry.Coordinates[0] {
		ring[i] = Point{c[0], c[1]}
	}
	geo, err := GeoBBox(ring)
	if err != nil {
		return Annotation{}, err
	}

	return Annotation{
		CategoryID: f.Properties.TypeID,
		Area:       bbox.Area(),
		BBox:       bbox,
		BBoxGeo:    &geo,
	}, nil
}

// parseXViewBounds parses an integer pixel box "x1,y1,x2,y2".
func parseXViewBounds(s string) (BBox, error) {
	tokens := strings.Split(s, ",")
	if len(tokens) != 4 {
		return BBox{}, fmt.Errorf("malformed bounds_imcoords %q", s)
	}
	var c [4]float64
	for i, t := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return BBox{}, fmt.Errorf("malformed bounds_imcoords %q", s)
		}
		c[i] = float64(v)
	}
	return cornersBBox(c[0], c[1], c[2], c[3]), nil
}
