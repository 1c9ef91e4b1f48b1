package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/modfetch/modfetch/internal/api"
	"github.com/modfetch/modfetch/internal/errs"
)

// Entry is one configured mod/resourcepack/shaderpack. In the manifest it is
// either a bare identifier string or a table with slug/id and conditions.
type Entry struct {
	Slug         string
	ID           string
	Version      string // pin to a specific version id or version number
	OnlyVersions []string
	Features     []string
}

// Identifier is the string sent to the API; the opaque id wins over the slug.
func (e *Entry) Identifier() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Slug
}

func (e *Entry) String() string {
	return e.Identifier()
}

// VersionConditions and FeatureConditions expose the entry's inclusion
// conditions to the matcher.
func (e *Entry) VersionConditions() []string { return e.OnlyVersions }
func (e *Entry) FeatureConditions() []string { return e.Features }

// ExtraURL is a direct download outside the metadata API. The URL and
// filename may carry {mc_version} and {loader} placeholders.
type ExtraURL struct {
	URL          string
	Type         string // mod, resourcepack, shaderpack or file
	Filename     string
	SHA1         string
	OnlyVersions []string
	Features     []string
}

func (e *ExtraURL) VersionConditions() []string { return e.OnlyVersions }
func (e *ExtraURL) FeatureConditions() []string { return e.Features }

// Minecraft is the content selection block of the manifest.
type Minecraft struct {
	Versions      []string
	Loader        api.Loader
	Mods          []Entry
	ResourcePacks []Entry
	ShaderPacks   []Entry
	ExtraURLs     []ExtraURL
}

// Output controls where files land and which archives get built.
type Output struct {
	DownloadDir string
	Formats     []string // "mrpack" and/or "zip"
}

// Metadata describes the produced pack.
type Metadata struct {
	Name        string
	Version     string
	Description string
}

// Config is a fully decoded manifest.
type Config struct {
	MaxConcurrent int
	MaxRetries    int
	RetryDelay    time.Duration
	Features      []string

	Minecraft Minecraft
	Output    Output
	Metadata  Metadata
}

// Load reads a manifest in TOML, JSON or YAML, picked by file extension.
// The raw document is decoded into a generic map first so entries can be
// either strings or tables regardless of format.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, errs.NewConfigError("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects manifests the pipeline cannot act on. Runs before any
// network or download activity.
func (c *Config) Validate() error {
	if len(c.Minecraft.Versions) == 0 {
		return errs.NewConfigError("minecraft.version must list at least one game version")
	}
	if c.Minecraft.Loader == "" {
		return errs.NewConfigError("minecraft.mod_loader is required")
	}
	if len(c.Minecraft.Mods) == 0 {
		return errs.NewConfigError("minecraft.mods must list at least one mod")
	}

	for i, mod := range c.Minecraft.Mods {
		if mod.Identifier() == "" {
			return errs.NewConfigError("mod entry #%d needs a slug or id", i+1)
		}
	}
	for i, extra := range c.Minecraft.ExtraURLs {
		if extra.URL == "" {
			return errs.NewConfigError("extra_urls entry #%d needs a url", i+1)
		}
		switch extra.Type {
		case "mod", "resourcepack", "shaderpack", "file":
		default:
			return errs.NewConfigError("extra_urls entry #%d has unknown type %q", i+1, extra.Type)
		}
	}

	for _, format := range c.Output.Formats {
		if format != "mrpack" && format != "zip" {
			return errs.NewConfigError("unknown output format %q", format)
		}
	}

	return nil
}

func fromRaw(raw map[string]any) (*Config, error) {
	def := Default()

	cfg := &Config{
		MaxConcurrent: zeroOr(intFrom(raw["max_concurrent"]), def.MaxConcurrent),
		MaxRetries:    zeroOr(intFrom(raw["max_retries"]), def.MaxRetries),
		RetryDelay:    zeroOr(durationFrom(raw["retry_delay"]), def.RetryDelay),
		Features:      stringListFrom(raw["features"]),
		Output:        def.Output,
	}

	// Explicit zero for max_concurrent must survive so the manager can warn
	// and coerce it; zeroOr above only replaces a missing key.
	if v, ok := raw["max_concurrent"]; ok {
		cfg.MaxConcurrent = intFrom(v)
	}

	mc, err := tableFrom(raw, "minecraft")
	if err != nil {
		return nil, err
	}

	cfg.Minecraft.Versions = stringListFrom(firstOf(mc, "version", "versions"))
	cfg.Minecraft.ExtraURLs, err = extraURLsFrom(mc["extra_urls"])
	if err != nil {
		return nil, err
	}

	if loaderName := stringFrom(mc["mod_loader"]); loaderName != "" {
		loader, err := api.ParseLoader(loaderName)
		if err != nil {
			return nil, errs.NewConfigError("%v (supported: forge, fabric, quilt, neoforge)", err)
		}
		cfg.Minecraft.Loader = loader
	}

	for _, section := range []struct {
		key  string
		dest *[]Entry
	}{
		{"mods", &cfg.Minecraft.Mods},
		{"resourcepacks", &cfg.Minecraft.ResourcePacks},
		{"shaderpacks", &cfg.Minecraft.ShaderPacks},
	} {
		entries, err := entriesFrom(mc[section.key], section.key)
		if err != nil {
			return nil, err
		}
		*section.dest = entries
	}

	if out, err := tableFrom(raw, "output"); err != nil {
		return nil, err
	} else if out != nil {
		cfg.Output.DownloadDir = zeroOr(stringFrom(out["download_dir"]), def.Output.DownloadDir)
		if formats := stringListFrom(firstOf(out, "format", "formats")); len(formats) > 0 {
			cfg.Output.Formats = formats
		}
	}

	if meta, err := tableFrom(raw, "metadata"); err != nil {
		return nil, err
	} else if meta != nil {
		cfg.Metadata.Name = stringFrom(meta["name"])
		cfg.Metadata.Version = stringFrom(meta["version"])
		cfg.Metadata.Description = stringFrom(meta["description"])
	}

	if cfg.Metadata.Name == "" {
		cfg.Metadata.Name = def.Metadata.Name
	}
	if cfg.Metadata.Version == "" {
		cfg.Metadata.Version = def.Metadata.Version
	}

	return cfg, nil
}

func entriesFrom(v any, section string) ([]Entry, error) {
	if v == nil {
		return nil, nil
	}

	list, ok := v.([]any)
	if !ok {
		return nil, errs.NewConfigError("minecraft.%s must be a list", section)
	}

	entries := make([]Entry, 0, len(list))

	for i, item := range list {
		switch val := item.(type) {
		case string:
			entries = append(entries, Entry{Slug: val})
		case map[string]any:
			entry := Entry{
				Slug:         stringFrom(val["slug"]),
				ID:           stringFrom(val["id"]),
				Version:      stringFrom(val["version"]),
				OnlyVersions: stringListFrom(val["only_version"]),
				Features:     stringListFrom(val["feature"]),
			}
			if entry.Identifier() == "" {
				return nil, errs.NewConfigError("minecraft.%s entry #%d needs a slug or id", section, i+1)
			}
			entries = append(entries, entry)
		default:
			return nil, errs.NewConfigError("minecraft.%s entry #%d must be a string or a table, got %T", section, i+1, item)
		}
	}

	return entries, nil
}

func extraURLsFrom(v any) ([]ExtraURL, error) {
	if v == nil {
		return nil, nil
	}

	list, ok := v.([]any)
	if !ok {
		return nil, errs.NewConfigError("minecraft.extra_urls must be a list")
	}

	extras := make([]ExtraURL, 0, len(list))

	for i, item := range list {
		switch val := item.(type) {
		case string:
			extras = append(extras, ExtraURL{URL: val, Type: "file"})
		case map[string]any:
			extra := ExtraURL{
				URL:          stringFrom(val["url"]),
				Type:         zeroOr(stringFrom(val["type"]), "file"),
				Filename:     stringFrom(val["filename"]),
				SHA1:         stringFrom(val["sha1"]),
				OnlyVersions: stringListFrom(val["only_version"]),
				Features:     stringListFrom(val["feature"]),
			}
			extras = append(extras, extra)
		default:
			return nil, errs.NewConfigError("minecraft.extra_urls entry #%d must be a string or a table, got %T", i+1, item)
		}
	}

	return extras, nil
}

// tableFrom fetches a nested table, normalizing the key shapes the three
// decoders produce.
func tableFrom(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case map[string]any:
		return val, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = item
		}
		return out, nil
	default:
		return nil, errs.NewConfigError("%s must be a table", key)
	}
}

func firstOf(table map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := table[key]; ok {
			return v
		}
	}
	return nil
}

func stringFrom(v any) string {
	s, _ := v.(string)
	return s
}

// stringListFrom accepts a single string or a list of strings; manifests use
// both shapes for version and feature conditions.
func stringListFrom(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	}
	return nil
}

func intFrom(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return 0
}

// durationFrom reads a delay in seconds, allowing fractional values.
func durationFrom(v any) time.Duration {
	switch val := v.(type) {
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return 0
}
