package rscoco

// TFRecord object detection export.

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// TFRecordAnnotatedFile defines the TFRecord annotation structure for a single image.
type TFRecordAnnotatedFile struct {
	Annotations TFFeatureMap
	FilePath    string
}

// toTFRecord converts an image and its annotations to the TFRecord object detection features.
// Boxes are normalised by the image size recorded in the dataset.
func toTFRecord(img Image, path string, annotations []Annotation, labels map[int]string) (
	TFRecordAnnotatedFile, error) {

	if img.Width <= 0 || img.Height <= 0 {
		return TFRecordAnnotatedFile{}, fmt.Errorf("invalid image size %dx%d", img.Width, img.Height)
	}

	// Read the image data.
	imgData, err := ioutil.ReadFile(path)
	if err != nil {
		return TFRecordAnnotatedFile{}, fmt.Errorf("failed to read the image: %v", err)
	}
	_, format, err := decodeImageConfigBytes(imgData)
	if err != nil {
		return TFRecordAnnotatedFile{}, fmt.Errorf("failed to decode the image metadata: %v", err)
	}

	// Prepare the feature map for the per image data.
	f := make(map[string]interface{}, 16)
	f["image/height"] = img.Height
	f["image/width"] = img.Width
	f["image/filename"] = img.FileName
	f["image/source_id"] = strconv.Itoa(img.ID)
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Prepare the per object data.
	n := len(annotations)
	xmins := make([]float32, n)
	ymins := make([]float32, n)
	xmaxs := make([]float32, n)
	ymaxs := make([]float32, n)
	classes := make([]string, n)
	classIDs := make([]int64, n)
	difficult := make([]int64, n)
	w, h := float64(img.Width), float64(img.Height)
	for i, a := range annotations {
		xmins[i] = float32(a.BBox.X() / w)
		ymins[i] = float32(a.BBox.Y() / h)
		xmaxs[i] = float32((a.BBox.X() + a.BBox.Width()) / w)
		ymaxs[i] = float32((a.BBox.Y() + a.BBox.Height()) / h)
		classes[i] = labels[a.CategoryID]
		classIDs[i] = int64(a.CategoryID)
		if a.Difficulty != nil {
			difficult[i] = int64(*a.Difficulty)
		}
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs
	f["image/object/difficult"] = difficult

	return TFRecordAnnotatedFile{
		Annotations: f,
		FilePath:    path,
	}, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write of ds to one or more
// TFRecord files stored under recordFilePath (with suffixes added when numShards>1). One example
// is written per image. Images are read from their recorded path or, if unknown, looked up by file
// name in imageDir and its direct subdirectories. Images that cannot be read are logged and
// skipped; written is the number of examples actually written.
//
// The category table is written to labelMapPath in the object detection label map text format,
// with the COCO category ids as label ids.
func WriteTFRecord(recordFilePath, labelMapPath, imageDir string, ds *Dataset,
	numShards int) (written int, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}

	paths, err := imagePathsByName(imageDir)
	if err != nil {
		return 0, err
	}

	labels := make(map[int]string, len(ds.Categories))
	for _, c := range ds.Categories {
		labels[c.ID] = c.Name
	}
	byImage := make(map[int][]Annotation, len(ds.Images))
	for _, a := range ds.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	shardSize := int(math.Ceil(float64(len(ds.Images)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one image at a time.
	for i, img := range ds.Images {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			// Close the previous shard file.
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return written, err
				}
				shardFile = nil
			}

			// Create the new shard file.
			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return written, fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		path := img.Path
		if path == "" {
			path = paths[img.FileName]
		}
		if path == "" {
			log.Printf("Failed to convert %q: no such image in %q", img.FileName, imageDir)
			continue
		}

		// Convert the image data to an example.
		tfFileData, err := toTFRecord(img, path, byImage[img.ID], labels)
		if err != nil {
			log.Printf("Failed to convert %q: %v", path, err)
			continue
		}
		tfExample := example.New(tfFileData.Annotations)

		// Write the example.
		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			_ = shardFile.Close()
			return written, fmt.Errorf("failed to write example for %q: %v", path, err)
		}
		written++
	}

	if shardFile != nil {
		if err := shardFile.Close(); err != nil {
			return written, err
		}
	}
	log.Printf("Wrote %d of %d images to %d TFRecord shard(s)", written, len(ds.Images),
		shardIdx+1)

	return written, saveTFRecordLabelMap(labelMapPath, ds.Categories)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes the categories to path as a StringIntLabelMap in protobuf text
// format, sorted by id.
func saveTFRecordLabelMap(path string, categories []Category) error {
	sorted := make([]Category, len(categories))
	copy(sorted, categories)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var buf bytes.Buffer
	for _, c := range sorted {
		if c.ID <= 0 {
			return fmt.Errorf("invalid label map entry: %s: %d", c.Name, c.ID)
		}
		fmt.Fprintf(&buf, "item {\n  name: %q\n  id: %d\n}\n", c.Name, c.ID)
	}

	if err := writeFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write the label map %q: %v", path, err)
	}
	return nil
}
