package rscoco

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericIDs(t *testing.T) {
	ids := NumericIDs{}
	for name, want := range map[string]int{
		"P0001.png":  1,
		"0001.tif":   1,
		"1234.tif":   1234,
		"img42.jpeg": 42,
		"7":          7,
	} {
		id, err := ids.ImageID(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, id, name)
	}

	for _, name := range []string{"beach.png", "P0001_a.png", ".png"} {
		_, err := ids.ImageID(name)
		assert.ErrorIs(t, err, ErrNonNumericName, name)
	}
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs()

	id, err := ids.ImageID("beach.png")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	id, err = ids.ImageID("harbour.png")
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	id, err = ids.ImageID("beach.png")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	var zero SequentialIDs
	id, err = zero.ImageID("x.png")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "2.png", 4, 4)
	writeTestImage(t, dir, "1.tif", 4, 4)
	writeTestFile(t, dir, "notes.txt", "not an image")
	writeTestImage(t, dir, "sub/3.PNG", 4, 4)
	writeTestImage(t, dir, "sub/deeper/4.png", 4, 4)

	flat, err := scanImages(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "1.tif"), filepath.Join(dir, "2.png")}, flat)

	nested, err := scanImages(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "1.tif"),
		filepath.Join(dir, "2.png"),
		filepath.Join(dir, "sub", "3.PNG"),
	}, nested)

	_, err = scanImages(filepath.Join(dir, "missing"), false)
	assert.Error(t, err)
}

func TestDimensionReaders(t *testing.T) {
	dir := t.TempDir()
	pngPath := writeTestImage(t, dir, "1.png", 64, 48)
	tifPath := writeTestImage(t, dir, "2.tif", 30, 70)

	for name, reader := range map[string]DimensionReader{
		"header":  HeaderDimensions{},
		"decoded": DecodedDimensions{},
	} {
		t.Run(name, func(t *testing.T) {
			w, h, err := reader.Dimensions(pngPath)
			require.NoError(t, err)
			assert.Equal(t, 64, w)
			assert.Equal(t, 48, h)

			w, h, err = reader.Dimensions(tifPath)
			require.NoError(t, err)
			assert.Equal(t, 30, w)
			assert.Equal(t, 70, h)

			_, _, err = reader.Dimensions(writeTestFile(t, dir, "broken.png", "garbage"))
			assert.Error(t, err)
		})
	}
}

func TestReadDimensionsKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 1; i <= 12; i++ {
		paths = append(paths, writeTestImage(t, dir, fmt.Sprintf("%02d.png", i), i, 2*i))
	}

	sizes, err := readDimensions(paths, HeaderDimensions{}, 3, nil)
	require.NoError(t, err)
	require.Len(t, sizes, len(paths))
	for i, size := range sizes {
		assert.Equal(t, i+1, size.X)
		assert.Equal(t, 2*(i+1), size.Y)
	}

	paths = append(paths, filepath.Join(dir, "missing.png"))
	_, err = readDimensions(paths, HeaderDimensions{}, 3, nil)
	assert.Error(t, err)
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "P0002.png", 10, 20)
	writeTestImage(t, dir, "P0001.png", 30, 40)

	table, err := loadImages(dir, false, intPtr(3), quietOptions().withDefaults())
	require.NoError(t, err)
	require.Len(t, table.images, 2)

	img := table.images[0]
	assert.Equal(t, 1, img.ID)
	assert.Equal(t, "P0001.png", img.FileName)
	assert.Equal(t, 30, img.Width)
	assert.Equal(t, 40, img.Height)
	assert.Equal(t, filepath.Join(dir, "P0001.png"), img.Path)
	require.NotNil(t, img.License)
	assert.Equal(t, 3, *img.License)

	found, ok := table.byName("P0002.txt")
	require.True(t, ok)
	assert.Equal(t, 2, found.ID)
	_, ok = table.byName("P0003")
	assert.False(t, ok)
}

func TestLoadImagesDuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "P0001.png", 10, 10)
	writeTestImage(t, dir, "0001.tif", 10, 10)

	_, err := loadImages(dir, false, nil, quietOptions().withDefaults())
	assert.ErrorIs(t, err, ErrDuplicateImageID)
}

func TestLoadImagesNonNumeric(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "beach.png", 10, 10)

	_, err := loadImages(dir, false, nil, quietOptions().withDefaults())
	assert.ErrorIs(t, err, ErrNonNumericName)

	opts := quietOptions()
	opts.IDs = NewSequentialIDs()
	table, err := loadImages(dir, false, nil, opts.withDefaults())
	require.NoError(t, err)
	assert.Equal(t, 1, table.images[0].ID)
}

func TestLoadImagesAmbiguousStem(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "a.png", 10, 10)
	writeTestImage(t, dir, "a.tif", 10, 10)

	opts := quietOptions()
	opts.IDs = NewSequentialIDs()
	_, err := loadImages(dir, false, nil, opts.withDefaults())
	assert.ErrorIs(t, err, ErrAmbiguousImageName)
}

func TestImagePathsByName(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "1.png", 4, 4)
	writeTestImage(t, dir, "part2/17.tif", 4, 4)

	paths, err := imagePathsByName(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"1.png":  filepath.Join(dir, "1.png"),
		"17.tif": filepath.Join(dir, "part2", "17.tif"),
	}, paths)

	writeTestImage(t, dir, "part3/17.tif", 4, 4)
	_, err = imagePathsByName(dir)
	assert.ErrorIs(t, err, ErrAmbiguousImageName)

	paths, err = imagePathsByName("")
	require.NoError(t, err)
	assert.Empty(t, paths)
}
