package packager

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipBuilder produces a plain zip of a version directory.
type ZipBuilder struct{}

// Build writes <outputDir>/<archiveName>.zip and returns its path.
func (ZipBuilder) Build(sourceDir, outputDir, archiveName string) (string, error) {
	if archiveName == "" {
		archiveName = filepath.Base(sourceDir)
	}

	archivePath := filepath.Join(outputDir, archiveName+".zip")

	out, err := os.Create(archivePath)
	if err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if err := addTree(zw, sourceDir, ""); err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}

	if err := zw.Close(); err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}

	if err := out.Close(); err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}

	return archivePath, nil
}

// addTree writes every regular file under sourceDir into the archive,
// prefixed with root when non-empty. Entry names always use forward slashes.
func addTree(zw *zip.Writer, sourceDir, root string) error {
	return filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(rel)
		if root != "" {
			name = root + "/" + name
		}
		name = strings.TrimPrefix(name, "/")

		entry, err := zw.Create(name)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(entry, f)

		return err
	})
}
