package packager

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modfetch/modfetch/internal/api"
	"github.com/modfetch/modfetch/internal/errs"
)

// Metadata describes the pack being built.
type Metadata struct {
	Name        string
	Version     string
	Description string
}

// manifest is the modrinth.index.json document.
type manifest struct {
	Game          string            `json:"game"`
	FormatVersion int               `json:"formatVersion"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary"`
	Files         []manifestFile    `json:"files"`
	Dependencies  map[string]string `json:"dependencies"`
}

type manifestFile struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"`
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`
}

// MrpackBuilder produces Modrinth-format modpack archives: a
// modrinth.index.json manifest plus the downloaded tree under overrides/.
type MrpackBuilder struct{}

// Build writes <outputPath>.mrpack and returns its path. The loader version
// is optional; when absent the manifest only pins the game version.
func (MrpackBuilder) Build(sourceDir, outputPath string, meta Metadata, gameVersion string, loader api.Loader, loaderVersion string) (string, error) {
	archivePath := outputPath + ".mrpack"

	out, err := os.Create(archivePath)
	if err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	deps := map[string]string{"minecraft": gameVersion}
	if loaderVersion != "" && loaderVersion != "unknown" {
		deps[fmt.Sprintf("%s-loader", loader)] = loaderVersion
	}

	doc := manifest{
		Game:          "minecraft",
		FormatVersion: 1,
		VersionID:     meta.Version,
		Name:          meta.Name,
		Summary:       meta.Description,
		Files:         []manifestFile{},
		Dependencies:  deps,
	}

	manifestEntry, err := zw.Create("modrinth.index.json")
	if err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}

	enc := json.NewEncoder(manifestEntry)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return "", packageError(err, sourceDir, archivePath)
	}

	if err := addTree(zw, sourceDir, "overrides"); err != nil {
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

func packageError(err error, sourceDir, archivePath string) error {
	return &errs.DownloadError{
		Err:      fmt.Errorf("building %s from %s: %w", archivePath, sourceDir, err),
		Category: errs.CategoryPackage,
		Resource: archivePath,
	}
}
