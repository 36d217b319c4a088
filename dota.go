package rscoco

// DOTA specific functionality.

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	dotaImageSourceTag = "imagesource:"
	dotaGSDTag         = "gsd:"
	dotaNullGSD        = "null"
	dotaObjectFields   = 10 // x1 y1 x2 y2 x3 y3 x4 y4 class difficulty
)

func dotaInfo(version string) Info {
	return Info{
		Year:    2018,
		Version: version,
		Description: "To advance object detection research in Earth Vision, also known as Earth" +
			" Observation and Remote Sensing, we introduce a large-scale Dataset for Object deTection" +
			" in Aerial images (DOTA). To this end, we collect 2806 aerial images from different" +
			" sensors and platforms. Each image is of the size about 4000-by-4000 pixels and contains" +
			" objects exhibiting a wide variety of scales, orientations, and shapes. These DOTA" +
			" images are then annotated by experts in aerial image interpretation using 15 common" +
			" object categories. The fully annotated DOTA images contains 188,282 instances.",
		Contributor: "Gui-Song Xia, Xiang Bai, Jian Ding, Zhen Zhu, Serge Belongie, Jiebo Luo," +
			" Mihai Datcu, Marcello Pelillo, Liangpei Zhang.",
		URL: "https://captain-whu.github.io/DOTA/index.html",
	}
}

// DOTASource describes the input directories of a DOTA conversion.
type DOTASource struct {
	ImageDir string // The images.
	LabelDir string // One .txt label file per image, matched by file name.
	// Optional. One .txt file per image with "imagesource:" and "gsd:" header lines. Often the
	// same as LabelDir for the DOTA label files that still carry their headers.
	MetaDir string
	// Optional closed category table. Categories are created on demand if nil.
	Categories *Categories
	Version    string // The dataset version for the info block, "1.0" if empty.
}

// DOTAObject is a single oriented object in a DOTA label file.
type DOTAObject struct {
	Quad       [4]Point
	Label      string
	Difficulty int
}

// FromDOTA reads the DOTA images and label files described by src and converts them to a COCO
// dataset.
func FromDOTA(src DOTASource, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if src.Version == "" {
		src.Version = "1.0"
	}
	categories := src.Categories
	if categories == nil {
		categories = NewOpenCategories()
	}

	images, err := loadImages(src.ImageDir, false, nil, opts)
	if err != nil {
		return nil, err
	}

	labelFiles, err := filesByExtInDir(src.LabelDir, ".txt")
	if err != nil {
		return nil, err
	}
	log.Printf("Parsing DOTA labels for %d files", len(labelFiles))

	res := &Result{Dataset: &Dataset{Info: dotaInfo(src.Version)}}

	bar := newProgressBar(opts.Progress, len(labelFiles), "Converting DOTA labels")
	for _, path := range labelFiles {
		img, found := images.byName(path)
		if !found {
			res.Warnings.add(MissingImage, path, "no image named %q in %q", fileStem(path),
				src.ImageDir)
			_ = bar.Add(1)
			continue
		}

		objects, err := parseDOTAFile(path)
		if err != nil {
			return nil, err
		}

		for _, o := range objects {
			categoryID, ok := categories.Resolve(o.Label)
			if !ok {
				res.Warnings.add(UnknownCategory, path, "unknown category %q", o.Label)
				continue
			}
			bbox, err := PixelBBox(o.Quad[:])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			res.Dataset.addAnnotation(Annotation{
				ImageID:    img.ID,
				CategoryID: categoryID,
				Area:       bbox.Area(),
				BBox:       bbox,
				Difficulty: intPtr(o.Difficulty),
			})
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if src.MetaDir != "" {
		res.Dataset.Licenses = backfillDOTAMetadata(images.images, src.MetaDir, &res.Warnings)
	}

	res.Dataset.Images = images.images
	res.Dataset.Categories = categories.List()
	if opts.Clip {
		res.Clip = res.Dataset.ClipToImages()
	}

	return res, nil
}

// parseDOTAFile parses the objects in the DOTA label file at path. Lines with fewer than ten
// fields, such as the "imagesource:" and "gsd:" headers, are skipped.
func parseDOTAFile(path string) ([]DOTAObject, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	objects := make([]DOTAObject, 0, len(lines))
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < dotaObjectFields {
			continue
		}
		o, err := parseDOTAObject(fields)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		objects = append(objects, o)
	}

	return objects, nil
}

// parseDOTAObject parses the fields of a single object line.
func parseDOTAObject(fields []string) (DOTAObject, error) {
	var o DOTAObject
	var coords [8]float64
	for i := range coords {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return o, fmt.Errorf("invalid coordinate %q", fields[i])
		}
		coords[i] = v
	}
	for i := range o.Quad {
		o.Quad[i] = Point{coords[2*i], coords[2*i+1]}
	}

	o.Label = fields[8]
	difficulty, err := strconv.Atoi(fields[9])
	if err != nil {
		return o, fmt.Errorf("invalid difficulty %q", fields[9])
	}
	o.Difficulty = difficulty

	return o, nil
}

// backfillDOTAMetadata sets the license and GSD of each image from its meta file in metaDir and
// returns the license table. Licenses are created per distinct image source, with ids from 1.
//
// Images whose meta file is missing or incomplete keep no license or GSD; this is recorded as a
// warning.
func backfillDOTAMetadata(images []Image, metaDir string, warnings *Warnings) []License {
	licenses := make([]License, 0, 4)
	licenseIDs := make(map[string]int)

	for i := range images {
		img := &images[i]
		path := filepath.Join(metaDir, fileStem(img.FileName)+".txt")
		lines, err := readLines(path)
		if err != nil {
			warnings.add(MissingMetadata, path, "%v", err)
			continue
		}

		var source, gsd string
		var haveSource, haveGSD bool
		for _, line := range lines {
			line = strings.TrimSpace(line)
			switch {
			case !haveSource && strings.HasPrefix(line, dotaImageSourceTag):
				source = strings.TrimSpace(strings.TrimPrefix(line, dotaImageSourceTag))
				haveSource = true
			case !haveGSD && strings.HasPrefix(line, dotaGSDTag):
				gsd = strings.TrimSpace(strings.TrimPrefix(line, dotaGSDTag))
				haveGSD = true
			}
		}

		if haveSource {
			id, found := licenseIDs[source]
			if !found {
				id = len(licenses) + 1
				licenseIDs[source] = id
				licenses = append(licenses, License{ID: id, Name: source})
			}
			img.License = intPtr(id)
		} else {
			warnings.add(MissingMetadata, path, "no %q line", dotaImageSourceTag)
		}

		switch {
		case !haveGSD:
			warnings.add(MissingMetadata, path, "no %q line", dotaGSDTag)
		case gsd == dotaNullGSD:
			// No GSD published for this image.
		default:
			v, err := strconv.ParseFloat(gsd, 64)
			if err != nil {
				warnings.add(InvalidMetadata, path, "invalid gsd %q", gsd)
				continue
			}
			img.GSD = &v
		}
	}

	return licenses
}
