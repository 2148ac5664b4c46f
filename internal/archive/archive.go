// Package archive assembles the ZIP bundle for batch GIF export.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// BundleName is the download filename for exports.
const BundleName = "gifs_bundle.zip"

// Entry is one finished GIF destined for the bundle.
type Entry struct {
	Name string // the upload's filename, any extension
	Data []byte
}

// Build assembles a deflate-compressed ZIP with one GIF per entry. Entry
// names are the upload's stem plus ".gif"; colliding names get a numeric
// suffix in encounter order.
func Build(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	used := make(map[string]bool)
	for _, e := range entries {
		name := uniqueName(used, e.Name)
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// uniqueName turns an upload name into an unused GIF entry name:
// a.mp4 becomes a.gif, a second a.* becomes "a (2).gif".
func uniqueName(used map[string]bool, uploadName string) string {
	base := filepath.Base(uploadName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "file"
	}

	name := stem + ".gif"
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s (%d).gif", stem, i)
	}
	used[name] = true
	return name
}
