// Package output writes rendered codes to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/renderer"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FormatForPath picks the output format from the file extension: .svg is
// vector, .txt is ascii and anything else is raster.
func FormatForPath(path string) renderer.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return renderer.FormatVector
	case ".txt":
		return renderer.FormatASCII
	default:
		return renderer.FormatRaster
	}
}

// Write stores out at path, creating parent directories as needed. ASCII
// output gets a trailing newline on disk.
func Write(path string, out *renderer.Output) error {
	if out == nil {
		return errors.IO("nothing to write", nil).WithContext("path", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return errors.IO("failed to create output directory", err).WithContext("path", dir)
		}
	}

	data := out.Data
	if out.Format == renderer.FormatASCII {
		data = append(append([]byte(nil), data...), '\n')
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return errors.IO(fmt.Sprintf("failed to write %s output", out.Format), err).WithContext("path", path)
	}
	return nil
}
