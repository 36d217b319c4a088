package rscoco

// Image enumeration and image id assignment.

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrNonNumericName is returned by NumericIDs for file names without a numeric stem.
	ErrNonNumericName = errors.New("file name does not encode a numeric id")
	// ErrDuplicateImageID is returned when two images resolve to the same id.
	ErrDuplicateImageID = errors.New("duplicate image id")
	// ErrAmbiguousImageName is returned when two images cannot be told apart by the name that labels
	// refer to them with.
	ErrAmbiguousImageName = errors.New("ambiguous image name")
)

// rasterExts are the file extensions considered to be images when scanning directories.
var rasterExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".bmp": true,
	".gif": true,
}

// IDStrategy derives the COCO image id from an image file name.
type IDStrategy interface {
	ImageID(fileName string) (int, error)
}

// NumericIDs parses the id from the file name stem, after removing a leading non-digit prefix
// ("P0001.png" and "0001.tif" both become 1). Names without digits fail with ErrNonNumericName.
type NumericIDs struct{}

// ImageID implements IDStrategy.
func (NumericIDs) ImageID(fileName string) (int, error) {
	stem := fileStem(fileName)
	digits := strings.TrimLeftFunc(stem, func(r rune) bool { return !unicode.IsDigit(r) })
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumericName, fileName)
	}
	return id, nil
}

// SequentialIDs assigns ids 1, 2, ... in the order names are first seen. Asking again for a name
// returns its existing id. A SequentialIDs must not be shared between conversions.
type SequentialIDs struct {
	ids map[string]int
}

// NewSequentialIDs returns an empty SequentialIDs.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{ids: make(map[string]int)}
}

// ImageID implements IDStrategy.
func (s *SequentialIDs) ImageID(fileName string) (int, error) {
	if s.ids == nil {
		s.ids = make(map[string]int)
	}
	if id, found := s.ids[fileName]; found {
		return id, nil
	}
	id := len(s.ids) + 1
	s.ids[fileName] = id
	return id, nil
}

// imageTable collects the images of a conversion and indexes them by id and by file stem.
type imageTable struct {
	images []Image
	ids    map[int]bool
	stems  map[string]int // File stem to index in images.
}

func newImageTable(capacity int) *imageTable {
	return &imageTable{
		images: make([]Image, 0, capacity),
		ids:    make(map[int]bool, capacity),
		stems:  make(map[string]int, capacity),
	}
}

// add appends img. It fails with ErrDuplicateImageID if its id is already taken and with
// ErrAmbiguousImageName if another image has the same file stem.
func (t *imageTable) add(img Image) error {
	if t.ids[img.ID] {
		return fmt.Errorf("%w %d for %q", ErrDuplicateImageID, img.ID, img.FileName)
	}
	stem := fileStem(img.FileName)
	if i, taken := t.stems[stem]; taken {
		return fmt.Errorf("%w: %q and %q share the stem %q", ErrAmbiguousImageName,
			t.images[i].FileName, img.FileName, stem)
	}
	t.ids[img.ID] = true
	t.stems[stem] = len(t.images)
	t.images = append(t.images, img)
	return nil
}

// byName returns the image whose file name has the same stem as name.
func (t *imageTable) byName(name string) (*Image, bool) {
	i, found := t.stems[fileStem(name)]
	if !found {
		return nil, false
	}
	return &t.images[i], true
}

// scanImages lists the rasters in dir, sorted by path. If nested is true, rasters in the direct
// subdirectories of dir are included as well.
func scanImages(dir string, nested bool) ([]string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if !nested {
				continue
			}
			sub, err := scanImages(path, false)
			if err != nil {
				return nil, err
			}
			paths = append(paths, sub...)
			continue
		}
		if rasterExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	return paths, nil
}

// imagePathsByName maps the file names of the rasters in dir and its direct subdirectories to their
// paths. An empty dir yields an empty map.
func imagePathsByName(dir string) (map[string]string, error) {
	if dir == "" {
		return map[string]string{}, nil
	}
	paths, err := scanImages(dir, true)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		if other, taken := byName[name]; taken {
			return nil, fmt.Errorf("%w: %q and %q", ErrAmbiguousImageName, other, path)
		}
		byName[name] = path
	}
	return byName, nil
}

// loadImages scans dir for rasters, reads their dimensions and assigns ids. All images get the
// license license, if it is not nil.
func loadImages(dir string, nested bool, license *int, opts Options) (*imageTable, error) {
	paths, err := scanImages(dir, nested)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d images in %q", len(paths), dir)

	sizes, err := readDimensions(paths, opts.Dimensions, opts.Workers, opts.Progress)
	if err != nil {
		return nil, err
	}

	table := newImageTable(len(paths))
	for i, path := range paths {
		name := filepath.Base(path)
		id, err := opts.IDs.ImageID(name)
		if err != nil {
			return nil, err
		}
		img := Image{
			ID:       id,
			Width:    sizes[i].X,
			Height:   sizes[i].Y,
			FileName: name,
			Path:     path,
		}
		if license != nil {
			img.License = intPtr(*license)
		}
		if err := table.add(img); err != nil {
			return nil, err
		}
	}

	return table, nil
}
