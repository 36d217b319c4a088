package rscoco

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

// filesByExtInDir returns the paths of the files directly in dirPath whose name ends in ext,
// ignoring case, sorted by name. Symlinks are included, directories are not.
func filesByExtInDir(dirPath, ext string) ([]string, error) {
	entries, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", dirPath, err)
	}

	ext = strings.ToLower(ext)
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		mode := e.Mode()
		if !mode.IsRegular() && mode&os.ModeSymlink == 0 {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			files = append(files, filepath.Join(dirPath, e.Name()))
		}
	}

	return files, nil
}

// fileStem returns the base name of path without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readLines returns the lines of the text file at path without their line endings. Both "\n" and
// "\r\n" endings are accepted; a missing final newline is fine.
func readLines(path string) ([]string, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %q: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	text := strings.TrimSuffix(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	return strings.Split(text, "\n"), nil
}

// closeWithErrCheck closes c and reports a close error through *e unless *e is already set.
func closeWithErrCheck(c io.Closer, e *error) {
	if err := c.Close(); err != nil && *e == nil {
		*e = err
	}
}

// newProgressBar returns a progress bar for n steps writing to w. A nil w discards the output.
func newProgressBar(w io.Writer, n int, description string) *progressbar.ProgressBar {
	if w == nil {
		w = ioutil.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)
}
