// Package orchestrator drives the per-version pipeline: resolve configured
// content, expand required dependencies, drain the download queue, then build
// the requested archives.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modfetch/modfetch/internal/api"
	"github.com/modfetch/modfetch/internal/config"
	"github.com/modfetch/modfetch/internal/download"
	"github.com/modfetch/modfetch/internal/hook"
	"github.com/modfetch/modfetch/internal/journal"
	"github.com/modfetch/modfetch/internal/logger"
	"github.com/modfetch/modfetch/internal/packager"
	"github.com/modfetch/modfetch/internal/resolver"
)

type Orchestrator struct {
	cfg        *config.Config
	configPath string

	client  *api.Client
	content *resolver.Resolver
	deps    *resolver.DependencyResolver
	matcher *resolver.Matcher
	hooks   *hook.Registry
	store   *journal.Store

	mrpack packager.MrpackBuilder
	zip    packager.ZipBuilder

	mu             sync.Mutex
	skipped        []string
	failed         []string
	statsByVersion map[string]download.Stats
}

type Option func(*Orchestrator)

// WithClient injects an API client, typically pointed at a fixture server.
func WithClient(client *api.Client) Option {
	return func(o *Orchestrator) {
		o.client = client
	}
}

// WithJournal records a run summary into the given store when the run ends.
func WithJournal(store *journal.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithHooks installs a handler registry fired at the pipeline's extension
// points.
func WithHooks(registry *hook.Registry) Option {
	return func(o *Orchestrator) {
		o.hooks = registry
	}
}

func New(cfg *config.Config, configPath string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:            cfg,
		configPath:     configPath,
		hooks:          hook.NewRegistry(),
		statsByVersion: make(map[string]download.Stats),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		o.client = api.NewClient()
	}

	o.content = resolver.New(o.client)
	o.deps = resolver.NewDependencyResolver(o.client)
	o.matcher = resolver.NewMatcher(o.client)

	return o
}

// Run processes every configured game version, builds archives, writes the
// journal record and logs the final report. Failures of individual mods,
// files or archives accumulate; only config validation and transport-level
// API errors abort the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.cfg.Validate(); err != nil {
		return err
	}

	started := time.Now()
	defer o.client.Close()

	for _, gameVersion := range o.cfg.Minecraft.Versions {
		logger.Infof("processing Minecraft %s (%s)", gameVersion, o.cfg.Minecraft.Loader)

		if err := o.processVersion(ctx, gameVersion); err != nil {
			return err
		}
	}

	o.buildArchives(ctx)

	if o.store != nil {
		if err := o.writeJournal(started); err != nil {
			logger.Warnf("could not record run history: %v", err)
		}
	}

	o.report()

	return ctx.Err()
}

// Skipped returns the projects that could not be resolved.
func (o *Orchestrator) Skipped() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]string, len(o.skipped))
	copy(out, o.skipped)

	return out
}

// Failed returns the filenames whose download failed permanently.
func (o *Orchestrator) Failed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]string, len(o.failed))
	copy(out, o.failed)

	return out
}

// Stats returns the download counters of one processed game version.
func (o *Orchestrator) Stats(gameVersion string) download.Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.statsByVersion[gameVersion]
}

func (o *Orchestrator) processVersion(ctx context.Context, gameVersion string) error {
	loader := o.cfg.Minecraft.Loader
	versionDir := filepath.Join(o.cfg.Output.DownloadDir, fmt.Sprintf("%s-%s", gameVersion, loader))

	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	manager := download.NewManager(download.Config{
		MaxConcurrent: o.cfg.MaxConcurrent,
		MaxRetries:    o.cfg.MaxRetries,
		RetryDelay:    o.cfg.RetryDelay,
	})
	defer manager.Close()

	// The processed set is reset for every target game version.
	processed := newProcessedSet()

	if err := o.enqueueMods(ctx, manager, processed, gameVersion, versionDir); err != nil {
		return err
	}
	if err := o.enqueuePacks(ctx, manager, processed, o.cfg.Minecraft.ResourcePacks, download.CategoryResourcePacks, gameVersion, versionDir); err != nil {
		return err
	}
	if err := o.enqueuePacks(ctx, manager, processed, o.cfg.Minecraft.ShaderPacks, download.CategoryShaderPacks, gameVersion, versionDir); err != nil {
		return err
	}
	o.enqueueExtraURLs(manager, gameVersion, versionDir)

	o.hooks.Fire(ctx, hook.PreDownload, &hook.Event{GameVersion: gameVersion, Loader: loader})

	if err := manager.Run(ctx); err != nil {
		return err
	}

	o.hooks.Fire(ctx, hook.PostDownload, &hook.Event{GameVersion: gameVersion, Loader: loader})

	stats := manager.Stats()
	logger.Infof("downloads for %s done: %d completed, %d failed, %d skipped", gameVersion, stats.Completed, stats.Failed, stats.Skipped)

	o.mu.Lock()
	o.statsByVersion[gameVersion] = stats
	o.failed = append(o.failed, manager.Failed()...)
	o.mu.Unlock()

	return nil
}

func (o *Orchestrator) enqueueMods(ctx context.Context, manager *download.Manager, processed *processedSet, gameVersion, versionDir string) error {
	loader := o.cfg.Minecraft.Loader
	modsDir := filepath.Join(versionDir, string(download.CategoryMods))

	for i := range o.cfg.Minecraft.Mods {
		mod := &o.cfg.Minecraft.Mods[i]

		if !o.matcher.ShouldInclude(mod, gameVersion, o.cfg.Features) {
			logger.Debugf("mod '%s' filtered out for %s", mod, gameVersion)
			continue
		}

		o.hooks.Fire(ctx, hook.PreResolve, &hook.Event{GameVersion: gameVersion, Loader: loader})

		res, err := o.content.Resolve(ctx, mod.Identifier(), gameVersion, loader, mod.Version)
		if err != nil {
			return err
		}
		if res == nil {
			o.recordSkipped(fmt.Sprintf("%s - no match for %s/%s", mod, gameVersion, loader))
			logger.Warnf("cannot resolve mod '%s', skipping", mod)
			continue
		}

		if !processed.mark(res.Project.ID) {
			logger.Debugf("mod '%s' already processed", res.Project.Name())
			continue
		}

		logger.Infof("resolved mod '%s' (version %s)", res.Project.Name(), res.Version.VersionNumber)
		manager.Enqueue(res.File.URL, res.File.Filename, modsDir, res.File.SHA1(), download.CategoryMods, download.PriorityNormal)

		o.hooks.Fire(ctx, hook.PostResolve, &hook.Event{
			GameVersion: gameVersion,
			Loader:      loader,
			Project:     res.Project,
			File:        res.File,
		})

		deps, err := o.deps.Resolve(ctx, res.Version, gameVersion, loader)
		if err != nil {
			return err
		}

		for _, dep := range deps {
			if !processed.mark(dep.Project.ID) {
				continue
			}

			logger.Infof("adding required dependency '%s'", dep.Project.Name())
			manager.Enqueue(dep.File.URL, dep.File.Filename, modsDir, dep.File.SHA1(), download.CategoryMods, download.PriorityNormal)
		}
	}

	return nil
}

func (o *Orchestrator) enqueuePacks(ctx context.Context, manager *download.Manager, processed *processedSet, entries []config.Entry, category download.Category, gameVersion, versionDir string) error {
	destDir := filepath.Join(versionDir, string(category))

	for i := range entries {
		pack := &entries[i]

		if !o.matcher.ShouldInclude(pack, gameVersion, o.cfg.Features) {
			continue
		}

		// Packs are loader-agnostic; query without the loader filter.
		res, err := o.content.Resolve(ctx, pack.Identifier(), gameVersion, "", pack.Version)
		if err != nil {
			return err
		}
		if res == nil {
			o.recordSkipped(fmt.Sprintf("%s - no match for %s", pack, gameVersion))
			logger.Warnf("cannot resolve %s '%s', skipping", category, pack)
			continue
		}

		if !processed.mark(res.Project.ID) {
			continue
		}

		logger.Infof("resolved %s '%s' (version %s)", category, res.Project.Name(), res.Version.VersionNumber)
		manager.Enqueue(res.File.URL, res.File.Filename, destDir, res.File.SHA1(), category, download.PriorityNormal)
	}

	return nil
}

func (o *Orchestrator) enqueueExtraURLs(manager *download.Manager, gameVersion, versionDir string) {
	loader := o.cfg.Minecraft.Loader
	expand := strings.NewReplacer("{mc_version}", gameVersion, "{loader}", string(loader))

	for i := range o.cfg.Minecraft.ExtraURLs {
		extra := &o.cfg.Minecraft.ExtraURLs[i]

		if !o.matcher.ShouldInclude(extra, gameVersion, o.cfg.Features) {
			continue
		}

		url := expand.Replace(extra.URL)

		filename := extra.Filename
		if filename == "" {
			filename = path.Base(url)
		} else {
			filename = expand.Replace(filename)
		}

		category, destDir := extraDestination(extra.Type, versionDir)

		logger.Infof("adding extra URL %s", url)
		manager.Enqueue(url, filename, destDir, extra.SHA1, category, download.PriorityNormal)
	}
}

// extraDestination maps an extra_urls type to its queue category and
// destination. Plain files land in the version directory root.
func extraDestination(entryType, versionDir string) (download.Category, string) {
	switch entryType {
	case "mod":
		return download.CategoryMods, filepath.Join(versionDir, string(download.CategoryMods))
	case "resourcepack":
		return download.CategoryResourcePacks, filepath.Join(versionDir, string(download.CategoryResourcePacks))
	case "shaderpack":
		return download.CategoryShaderPacks, filepath.Join(versionDir, string(download.CategoryShaderPacks))
	default:
		return download.CategoryFiles, versionDir
	}
}

func (o *Orchestrator) buildArchives(ctx context.Context) {
	formats := o.cfg.Output.Formats
	if len(formats) == 0 {
		return
	}

	loader := o.cfg.Minecraft.Loader

	for _, gameVersion := range o.cfg.Minecraft.Versions {
		sourceDir := filepath.Join(o.cfg.Output.DownloadDir, fmt.Sprintf("%s-%s", gameVersion, loader))
		if _, err := os.Stat(sourceDir); err != nil {
			logger.Warnf("source directory missing, not packaging %s: %v", gameVersion, err)
			continue
		}

		for _, format := range formats {
			o.hooks.Fire(ctx, hook.PrePackage, &hook.Event{GameVersion: gameVersion, Loader: loader})

			archivePath, err := o.buildArchive(ctx, format, sourceDir, gameVersion)
			if err != nil {
				logger.Errorf("%s build failed for %s: %v", format, gameVersion, err)
				continue
			}

			logger.Infof("built %s: %s", format, archivePath)
			o.hooks.Fire(ctx, hook.PostPackage, &hook.Event{GameVersion: gameVersion, Loader: loader, ArchivePath: archivePath})
		}
	}
}

func (o *Orchestrator) buildArchive(ctx context.Context, format, sourceDir, gameVersion string) (string, error) {
	loader := o.cfg.Minecraft.Loader
	meta := o.cfg.Metadata

	switch format {
	case "mrpack":
		outputName := fmt.Sprintf("%s_%s_MC%s-%s", meta.Name, meta.Version, gameVersion, loader)
		outputPath := filepath.Join(o.cfg.Output.DownloadDir, outputName)

		loaderVersion, _ := o.matcher.LoaderVersion(ctx, loader, gameVersion)

		return o.mrpack.Build(sourceDir, outputPath, packager.Metadata{
			Name:        meta.Name,
			Version:     meta.Version,
			Description: meta.Description,
		}, gameVersion, loader, loaderVersion)

	case "zip":
		archiveName := fmt.Sprintf("archive-%s-%s", gameVersion, loader)
		return o.zip.Build(sourceDir, o.cfg.Output.DownloadDir, archiveName)
	}

	return "", fmt.Errorf("unknown output format %q", format)
}

func (o *Orchestrator) writeJournal(started time.Time) error {
	o.mu.Lock()
	rec := &journal.Record{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		ConfigPath:   o.configPath,
		Loader:       string(o.cfg.Minecraft.Loader),
		GameVersions: o.cfg.Minecraft.Versions,
		Stats:        o.statsByVersion,
		Failed:       o.failed,
		Skipped:      o.skipped,
	}
	o.mu.Unlock()

	return o.store.Append(rec)
}

func (o *Orchestrator) report() {
	o.mu.Lock()
	failed := o.failed
	skipped := o.skipped
	o.mu.Unlock()

	if len(failed) == 0 && len(skipped) == 0 {
		logger.Infof("all downloads completed successfully")
		return
	}

	if len(failed) > 0 {
		logger.Errorf("%d download(s) failed:", len(failed))
		for _, name := range failed {
			logger.Errorf("  - %s", name)
		}
	}

	if len(skipped) > 0 {
		logger.Warnf("%d project(s) skipped:", len(skipped))
		for _, name := range skipped {
			logger.Warnf("  - %s", name)
		}
	}
}

func (o *Orchestrator) recordSkipped(entry string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.skipped = append(o.skipped, entry)
}

// processedSet tracks project ids already enqueued in one version pass. The
// check-and-insert is a single critical section so concurrent resolution
// paths cannot both win on the same id.
type processedSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newProcessedSet() *processedSet {
	return &processedSet{ids: make(map[string]struct{})}
}

// mark returns true the first time an id is seen.
func (p *processedSet) mark(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, seen := p.ids[id]; seen {
		return false
	}
	p.ids[id] = struct{}{}

	return true
}
