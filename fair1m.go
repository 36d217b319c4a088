package rscoco

// FAIR1M specific functionality.

import (
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// FAIR1MCategories is the fixed FAIR1M category table, grouped by supercategory.
var FAIR1MCategories = []Category{
	{1, "Dry Cargo Ship", "Ship"},
	{2, "Engineering Ship", "Ship"},
	{3, "Motorboat", "Ship"},
	{4, "Liquid Cargo Ship", "Ship"},
	{5, "Warship", "Ship"},
	{6, "Passenger Ship", "Ship"},
	{7, "Tugboat", "Ship"},
	{8, "Fishing Boat", "Ship"},
	{9, "other-ship", "Ship"},

	{10, "Small Car", "Vehicle"},
	{11, "Van", "Vehicle"},
	{12, "Bus", "Vehicle"},
	{13, "Excavator", "Vehicle"},
	{14, "Tractor", "Vehicle"},
	{15, "Dump Truck", "Vehicle"},
	{16, "Cargo Truck", "Vehicle"},
	{17, "Truck Tractor", "Vehicle"},
	{18, "Trailer", "Vehicle"},
	{19, "other-vehicle", "Vehicle"},

	{20, "Boeing737", "Airplane"},
	{21, "Boeing747", "Airplane"},
	{22, "Boeing777", "Airplane"},
	{23, "Boeing787", "Airplane"},
	{24, "ARJ21", "Airplane"},
	{25, "A220", "Airplane"},
	{26, "A321", "Airplane"},
	{27, "A330", "Airplane"},
	{28, "A350", "Airplane"},
	{29, "C919", "Airplane"},
	{30, "other-airplane", "Airplane"},

	{31, "Baseball Field", "Court"},
	{32, "Football Field", "Court"},
	{33, "Tennis Court", "Court"},
	{34, "Basketball Court", "Court"},

	{35, "Intersection", "Road"},
	{36, "Roundabout", "Road"},
	{37, "Bridge", "Road"},
}

const fair1mLicenseID = 1

var fair1mLicense = License{
	ID:   fair1mLicenseID,
	Name: "Creative Commons Attribution-NonCommercial-ShareAlike 3.0 License.",
	URL:  stringPtr("https://creativecommons.org/licenses/by-nc-sa/3.0/"),
}

var fair1mInfo = Info{
	Year:        2021,
	Version:     "1.0",
	Description: "FAIR1M Challenge Dataset 2021",
	Paper:       "https://arxiv.org/abs/2103.05569v2",
	URL:         "http://gaofen-challenge.com/indexpage",
	DateCreated: "2021",
}

// FAIR1MObject is a single object in a FAIR1M label file.
type FAIR1MObject struct {
	Coordinate     string   `xml:"coordinate"`
	Name           string   `xml:"name"`
	PossibleResult string   `xml:"possibleresult>name"`
	Points         []string `xml:"points>point"` // "x,y" pairs.
}

// Label returns the object's category name.
func (o FAIR1MObject) Label() string {
	if o.PossibleResult != "" {
		return strings.TrimSpace(o.PossibleResult)
	}
	return strings.TrimSpace(o.Name)
}

// FAIR1MAnnotatedFile defines the FAIR1M annotation structure for a single image.
type FAIR1MAnnotatedFile struct {
	XMLName        xml.Name       `xml:"annotation"`
	FileName       string         `xml:"filename"`
	SourceFileName string         `xml:"source>filename"`
	Width          int            `xml:"size>width"`
	Height         int            `xml:"size>height"`
	Objects        []FAIR1MObject `xml:"objects>object"`
}

// ImageFileName returns the name of the annotated image.
func (f FAIR1MAnnotatedFile) ImageFileName() string {
	if f.SourceFileName != "" {
		return strings.TrimSpace(f.SourceFileName)
	}
	return strings.TrimSpace(f.FileName)
}

// FromFAIR1M reads the FAIR1M XML label files in labelDir and converts them to a COCO dataset
// with the fixed FAIR1M category table. Image sizes are taken from the label files.
func FromFAIR1M(labelDir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	labelFiles, err := filesByExtInDir(labelDir, ".xml")
	if err != nil {
		return nil, err
	}
	log.Printf("Parsing FAIR1M labels for %d files", len(labelFiles))

	categories, err := NewClosedCategories(FAIR1MCategories)
	if err != nil {
		return nil, err
	}

	res := &Result{Dataset: &Dataset{
		Info:     fair1mInfo,
		Licenses: []License{fair1mLicense},
	}}
	images := newImageTable(len(labelFiles))

	bar := newProgressBar(opts.Progress, len(labelFiles), "Converting FAIR1M labels")
	for _, path := range labelFiles {
		f, err := parseFAIR1MFile(path)
		if err != nil {
			return nil, err
		}

		name := f.ImageFileName()
		id, err := opts.IDs.ImageID(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := images.add(Image{
			ID:       id,
			Width:    f.Width,
			Height:   f.Height,
			FileName: name,
			License:  intPtr(fair1mLicenseID),
		}); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		for i, o := range f.Objects {
			if a, ok := convertFAIR1MObject(path, i, o, id, categories, &res.Warnings); ok {
				res.Dataset.addAnnotation(a)
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	res.Dataset.Images = images.images
	res.Dataset.Categories = categories.List()
	if opts.Clip {
		res.Clip = res.Dataset.ClipToImages()
	}

	return res, nil
}

// parseFAIR1MFile decodes the XML label file at path.
func parseFAIR1MFile(path string) (f FAIR1MAnnotatedFile, err error) {
	file, err := os.Open(path)
	if err != nil {
		return f, err
	}
	defer closeWithErrCheck(file, &err)

	if err := xml.NewDecoder(file).Decode(&f); err != nil {
		return f, fmt.Errorf("failed to parse FAIR1M input from %q: %w", path, err)
	}
	return f, nil
}

// convertFAIR1MObject converts the object with index idx in the label file at path. Problems with
// the object are recorded in warnings; ok is false if the object had to be dropped.
func convertFAIR1MObject(path string, idx int, o FAIR1MObject, imageID int,
	categories *Categories, warnings *Warnings) (a Annotation, ok bool) {

	if o.Coordinate != "" && strings.TrimSpace(o.Coordinate) != "pixel" {
		warnings.add(UnexpectedCoordinates, path, "object %d uses %q coordinates", idx,
			o.Coordinate)
	}

	label := o.Label()
	categoryID, ok := categories.Resolve(label)
	if !ok {
		warnings.add(UnknownCategory, path, "object %d has unknown category %q", idx, label)
		return a, false
	}

	points := make([]Point, 0, len(o.Points))
	for _, p := range o.Points {
		pt, err := parseFAIR1MPoint(p)
		if err != nil {
			warnings.add(SkippedPoint, path, "object %d: %v", idx, err)
			continue
		}
		points = append(points, pt)
	}

	bbox, err := PixelBBox(points)
	if err != nil {
		warnings.add(EmptyObject, path, "object %d: %v", idx, err)
		return a, false
	}

	segmentation := make(Segmentation, len(points))
	for i, p := range points {
		segmentation[i] = [2]float64{float64(int(p.X)), float64(int(p.Y))}
	}

	return Annotation{
		ImageID:      imageID,
		CategoryID:   categoryID,
		Area:         bbox.Area(),
		BBox:         bbox,
		Segmentation: segmentation,
	}, true
}

// parseFAIR1MPoint parses an "x,y" point.
func parseFAIR1MPoint(s string) (Point, error) {
	tokens := strings.Split(strings.TrimSpace(s), ",")
	if len(tokens) != 2 {
		return Point{}, fmt.Errorf("malformed point %q", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(tokens[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(tokens[1]), 64)
	if errX != nil || errY != nil {
		return Point{}, fmt.Errorf("malformed point %q", s)
	}
	return Point{x, y}, nil
}
