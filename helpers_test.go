package rscoco

import (
	"image"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

// writeTestFile writes content to dir/name, creating parent directories, and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

// writeTestImage writes a blank width x height raster to dir/name. The encoding follows the file
// extension (.png or .tif).
func writeTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewGray(image.Rect(0, 0, width, height))
	switch filepath.Ext(name) {
	case ".tif", ".tiff":
		require.NoError(t, tiff.Encode(f, img, nil))
	default:
		require.NoError(t, png.Encode(f, img))
	}
	return path
}

// requireIntegrity checks that every annotation references an existing image and category and
// that annotation ids are dense.
func requireIntegrity(t *testing.T, ds *Dataset) {
	t.Helper()

	require.NoError(t, ds.Validate())
	images := make(map[int]bool)
	for _, img := range ds.Images {
		images[img.ID] = true
	}
	categories := make(map[int]bool)
	for _, c := range ds.Categories {
		categories[c.ID] = true
	}
	for i, a := range ds.Annotations {
		require.Equal(t, i, a.ID)
		require.True(t, images[a.ImageID], "annotation %d has unknown image %d", a.ID, a.ImageID)
		require.True(t, categories[a.CategoryID], "annotation %d has unknown category %d", a.ID,
			a.CategoryID)
	}
}

func quietOptions() Options {
	return Options{Workers: 2}
}
