package rscoco

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDOTAFixture creates a DOTA dataset with two images, their labels and meta files, and returns
// its source description.
func writeDOTAFixture(t *testing.T) DOTASource {
	t.Helper()

	root := t.TempDir()
	src := DOTASource{
		ImageDir: filepath.Join(root, "images"),
		LabelDir: filepath.Join(root, "labelTxt"),
		MetaDir:  filepath.Join(root, "meta"),
	}
	writeTestImage(t, src.ImageDir, "P0001.png", 40, 40)
	writeTestImage(t, src.ImageDir, "P0002.png", 100, 80)

	writeTestFile(t, src.LabelDir, "P0001.txt", "imagesource:GoogleEarth\ngsd:0.146343590398\n"+
		"10 10 50 10 50 40 10 40 plane 0\n"+
		"35.5 35 45 35 45 45.9 35.5 45 small-vehicle 1\n")
	writeTestFile(t, src.LabelDir, "P0002.txt", "1 2 3 2 3 4 1 4 plane 1\n\n")
	writeTestFile(t, src.LabelDir, "P0003.txt", "1 2 3 2 3 4 1 4 plane 1\n")

	writeTestFile(t, src.MetaDir, "P0001.txt", "imagesource:GoogleEarth\ngsd:0.146343590398\n")
	writeTestFile(t, src.MetaDir, "P0002.txt", "imagesource: JL-1\ngsd:null\n")

	return src
}

func TestFromDOTA(t *testing.T) {
	src := writeDOTAFixture(t)

	res, err := FromDOTA(src, quietOptions())
	require.NoError(t, err)
	ds := res.Dataset
	requireIntegrity(t, ds)

	assert.Equal(t, dotaInfo("1.0"), ds.Info)
	assert.Equal(t, []Category{
		{ID: 1, Name: "plane", Supercategory: DefaultSupercategory},
		{ID: 2, Name: "small-vehicle", Supercategory: DefaultSupercategory},
	}, ds.Categories)

	assert.Equal(t, []License{{ID: 1, Name: "GoogleEarth"}, {ID: 2, Name: "JL-1"}}, ds.Licenses)

	require.Len(t, ds.Images, 2)
	first := ds.Images[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 40, first.Width)
	assert.Equal(t, 40, first.Height)
	require.NotNil(t, first.License)
	assert.Equal(t, 1, *first.License)
	require.NotNil(t, first.GSD)
	assert.InDelta(t, 0.146343590398, *first.GSD, 1e-12)

	second := ds.Images[1]
	require.NotNil(t, second.License)
	assert.Equal(t, 2, *second.License)
	assert.Nil(t, second.GSD)

	require.Len(t, ds.Annotations, 3)
	plane := ds.Annotations[0]
	assert.Equal(t, BBox{10, 10, 40, 30}, plane.BBox)
	assert.Equal(t, 1200.0, plane.Area)
	assert.Equal(t, intPtr(0), plane.Difficulty)

	vehicle := ds.Annotations[1]
	assert.Equal(t, 2, vehicle.CategoryID)
	assert.Equal(t, BBox{35, 35, 10, 10}, vehicle.BBox)
	assert.Equal(t, intPtr(1), vehicle.Difficulty)

	assert.Equal(t, 2, ds.Annotations[2].ImageID)
	assert.Equal(t, 1, ds.Annotations[2].CategoryID)

	assert.Equal(t, 1, res.Warnings.Count(MissingImage))
	assert.Len(t, res.Warnings, 1)
}

func TestFromDOTAClosedCategoriesAndClip(t *testing.T) {
	src := writeDOTAFixture(t)
	src.MetaDir = ""
	src.Version = "1.5"

	var err error
	src.Categories, err = NewClosedCategories([]Category{{ID: 7, Name: "small-vehicle"}})
	require.NoError(t, err)

	opts := quietOptions()
	opts.Clip = true
	res, err := FromDOTA(src, opts)
	require.NoError(t, err)
	ds := res.Dataset
	requireIntegrity(t, ds)

	assert.Equal(t, "1.5", ds.Info.Version)
	assert.Empty(t, ds.Licenses)
	assert.Nil(t, ds.Images[0].License)

	require.Len(t, ds.Annotations, 1)
	assert.Equal(t, 7, ds.Annotations[0].CategoryID)
	assert.Equal(t, BBox{35, 35, 5, 5}, ds.Annotations[0].BBox)
	assert.Equal(t, 25.0, ds.Annotations[0].Area)
	assert.Equal(t, ClipStats{High: 1}, res.Clip)
	assert.Equal(t, 2, res.Warnings.Count(UnknownCategory))
}

func TestFromDOTAMissingMetadata(t *testing.T) {
	src := writeDOTAFixture(t)
	writeTestFile(t, src.MetaDir, "P0002.txt", "gsd:abc\n")

	res, err := FromDOTA(src, quietOptions())
	require.NoError(t, err)

	assert.Equal(t, []License{{ID: 1, Name: "GoogleEarth"}}, res.Dataset.Licenses)
	assert.Nil(t, res.Dataset.Images[1].License)
	assert.Nil(t, res.Dataset.Images[1].GSD)
	assert.Equal(t, 1, res.Warnings.Count(MissingMetadata))
	assert.Equal(t, 1, res.Warnings.Count(InvalidMetadata))

	src.MetaDir = filepath.Join(filepath.Dir(src.MetaDir), "nothing")
	res, err = FromDOTA(src, quietOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Dataset.Licenses)
	assert.Equal(t, 2, res.Warnings.Count(MissingMetadata))
}

func TestParseDOTAFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := parseDOTAFile(writeTestFile(t, dir, "coords.txt", "1 2 3 x 5 6 7 8 plane 0\n"))
	assert.Error(t, err)

	_, err = parseDOTAFile(writeTestFile(t, dir, "difficulty.txt", "1 2 3 4 5 6 7 8 plane hard\n"))
	assert.Error(t, err)

	objects, err := parseDOTAFile(writeTestFile(t, dir, "short.txt", "gsd:null\n1 2 3 4 plane\n"))
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestFromDOTAAmbiguousImageStem(t *testing.T) {
	src := writeDOTAFixture(t)
	writeTestImage(t, src.ImageDir, "a.png", 10, 10)
	writeTestImage(t, src.ImageDir, "a.tif", 10, 10)
	writeTestFile(t, src.LabelDir, "a.txt", "1 2 3 2 3 4 1 4 plane 0\n")

	opts := quietOptions()
	opts.IDs = NewSequentialIDs()
	_, err := FromDOTA(src, opts)
	assert.ErrorIs(t, err, ErrAmbiguousImageName)
}
