package rscoco

import (
	"fmt"
	"io"
	"runtime"
)

// WarningKind classifies a recoverable problem found during a conversion.
type WarningKind int

// The known warning kinds.
const (
	SkippedPoint          WarningKind = iota // A malformed polygon point was dropped.
	EmptyObject                              // An object without usable points was dropped.
	UnknownCategory                          // An object with an unknown category was dropped.
	UnexpectedCoordinates                    // An object uses a coordinate type other than pixels.
	MissingImage                             // Labels without a matching image were dropped.
	MissingMetadata                          // No license/GSD metadata could be read for an image.
	InvalidMetadata                          // License/GSD metadata was present but not usable.
)

func (k WarningKind) String() string {
	switch k {
	case SkippedPoint:
		return "skipped-point"
	case EmptyObject:
		return "empty-object"
	case UnknownCategory:
		return "unknown-category"
	case UnexpectedCoordinates:
		return "unexpected-coordinates"
	case MissingImage:
		return "missing-image"
	case MissingMetadata:
		return "missing-metadata"
	case InvalidMetadata:
		return "invalid-metadata"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning is a problem that did not stop the conversion.
type Warning struct {
	Kind    WarningKind
	Path    string // The input file the warning refers to.
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Path, w.Message)
}

// Warnings is the list of warnings collected during a conversion.
type Warnings []Warning

func (ws *Warnings) add(kind WarningKind, path, format string, args ...interface{}) {
	*ws = append(*ws, Warning{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of warnings of the given kind.
func (ws Warnings) Count(kind WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Result is the output of a conversion.
type Result struct {
	Dataset  *Dataset
	Warnings Warnings
	Clip     ClipStats // Only set when the clipping pass ran.
}

// Options configures the shared parts of the converters. The zero value is usable.
type Options struct {
	IDs        IDStrategy      // Image id assignment. Defaults to NumericIDs.
	Dimensions DimensionReader // Raster size lookup. Defaults to HeaderDimensions.
	Workers    int             // Concurrent raster reads. Defaults to runtime.NumCPU().
	Clip       bool            // Clip bboxes to their images (always done for xView).
	Progress   io.Writer       // Progress bar output; nil disables progress bars.
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = NumericIDs{}
	}
	if o.Dimensions == nil {
		o.Dimensions = HeaderDimensions{}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}
