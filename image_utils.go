package rscoco

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register the GIF decoder.
	_ "image/jpeg" // Register the JPEG decoder.
	_ "image/png"  // Register the PNG decoder.
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register the BMP decoder.
	_ "golang.org/x/image/tiff" // Register the TIFF decoder (xView GeoTIFFs).
	"golang.org/x/sync/errgroup"
)

// DimensionReader returns the width and height of the raster at path.
type DimensionReader interface {
	Dimensions(path string) (width, height int, err error)
}

// HeaderDimensions reads the dimensions from the image header without decoding the pixel data.
type HeaderDimensions struct{}

// Dimensions implements DimensionReader.
func (HeaderDimensions) Dimensions(path string) (width, height int, err error) {
	config, _, err := decodeImageConfig(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode the image metadata of %q: %w", path, err)
	}
	return config.Width, config.Height, nil
}

// DecodedDimensions decodes the whole image and returns the size of the result. Unlike
// HeaderDimensions it applies the EXIF orientation of JPEG files, so rotated photos report their
// displayed size.
type DecodedDimensions struct{}

// Dimensions implements DimensionReader.
func (DecodedDimensions) Dimensions(path string) (width, height int, err error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode the image %q: %w", path, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer closeWithErrCheck(file, &err)

	return image.DecodeConfig(file)
}

// decodeImageConfigBytes returns the results of image.DecodeConfig for encoded image data.
func decodeImageConfigBytes(data []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(data))
}

// readDimensions reads the dimensions of all rasters in paths with up to workers concurrent reads.
// The results are stored at the index of their path. The first error stops the remaining reads.
func readDimensions(paths []string, reader DimensionReader, workers int, progress io.Writer) (
	[]image.Point, error) {

	sizes := make([]image.Point, len(paths))
	bar := newProgressBar(progress, len(paths), "Reading image sizes")

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w, h, err := reader.Dimensions(path)
			if err != nil {
				return err
			}
			sizes[i] = image.Pt(w, h)
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	return sizes, nil
}
