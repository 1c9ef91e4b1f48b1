package api

import "fmt"

// Loader is the mod-loading runtime a project targets.
type Loader string

const (
	LoaderForge    Loader = "forge"
	LoaderFabric   Loader = "fabric"
	LoaderQuilt    Loader = "quilt"
	LoaderNeoForge Loader = "neoforge"
)

// ParseLoader validates a loader name from a manifest.
func ParseLoader(s string) (Loader, error) {
	switch Loader(s) {
	case LoaderForge, LoaderFabric, LoaderQuilt, LoaderNeoForge:
		return Loader(s), nil
	}
	return "", fmt.Errorf("unknown mod loader %q", s)
}

// DependencyKind classifies a version's relation to another project.
type DependencyKind string

const (
	DependencyRequired     DependencyKind = "required"
	DependencyOptional     DependencyKind = "optional"
	DependencyIncompatible DependencyKind = "incompatible"
	DependencyEmbedded     DependencyKind = "embedded"
)

// ProjectInfo is a publishable unit (mod, resource pack, shader, datapack).
// Immutable once fetched; cached by identifier for the lifetime of a run.
type ProjectInfo struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProjectType string   `json:"project_type"`
	Versions    []string `json:"versions"`
}

// Name returns the human identifier preferred for log output.
func (p *ProjectInfo) Name() string {
	if p.Slug != "" {
		return p.Slug
	}
	return p.ID
}

// FileInfo is one downloadable artifact of a version.
type FileInfo struct {
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Size     int64             `json:"size"`
	Hashes   map[string]string `json:"hashes"`
	Primary  bool              `json:"primary"`
}

// SHA1 returns the file's sha1 digest, or "" when the API supplied none.
func (f *FileInfo) SHA1() string {
	if f.Hashes == nil {
		return ""
	}
	return f.Hashes["sha1"]
}

// DependencyInfo is a version's reference to another project.
type DependencyInfo struct {
	ProjectID string         `json:"project_id"`
	Kind      DependencyKind `json:"dependency_type"`
}

// VersionInfo is one release of a project.
type VersionInfo struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	VersionNumber string           `json:"version_number"`
	Loaders       []string         `json:"loaders"`
	GameVersions  []string         `json:"game_versions"`
	Files         []FileInfo       `json:"files"`
	Dependencies  []DependencyInfo `json:"dependencies"`
}

// PrimaryFile returns the file flagged primary, falling back to the first
// file in API order. Absent when the version carries no files.
func (v *VersionInfo) PrimaryFile() (*FileInfo, bool) {
	if len(v.Files) == 0 {
		return nil, false
	}

	for i := range v.Files {
		if v.Files[i].Primary {
			return &v.Files[i], true
		}
	}

	return &v.Files[0], true
}
