package actual

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// DatabaseName is the budget database entry inside a downloaded archive.
const DatabaseName = "db.sqlite"

var ErrNoDatabase = errors.New("archive has no " + DatabaseName)

// ExtractDatabase writes the archive's db.sqlite into dir and returns its path.
func ExtractDatabase(archive []byte, dir string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if path.Base(f.Name) != DatabaseName || f.FileInfo().IsDir() {
			continue
		}

		dst := filepath.Join(dir, DatabaseName)
		if err := copyEntry(f, dst); err != nil {
			return "", err
		}
		return dst, nil
	}
	return "", ErrNoDatabase
}

func copyEntry(f *zip.File, dst string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
