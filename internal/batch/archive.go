package batch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// extractSingle verifies the uploaded archive and extracts its one
// contained file into dir, returning the extracted path.
//
// Integrity is verified by fully reading every entry: the zip reader
// checks CRCs on read, so a truncated or corrupted upload fails here
// rather than mid-parse. An archive with no file entries is a fatal
// input error.
func extractSingle(dir string, fileBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", fmt.Errorf("received archive is damaged: %w", err)
	}

	var first string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("received archive is damaged: %w", err)
		}

		// Flatten the entry name; archive-internal paths are not trusted.
		dst := filepath.Join(dir, filepath.Base(f.Name))
		out, err := os.Create(dst)
		if err != nil {
			rc.Close()
			return "", fmt.Errorf("extract %s: %w", f.Name, err)
		}

		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("received archive is damaged: %s: %w", f.Name, err)
		}

		if first == "" {
			first = dst
		}
	}

	if first == "" {
		return "", fmt.Errorf("received archive contains no files")
	}
	return first, nil
}
