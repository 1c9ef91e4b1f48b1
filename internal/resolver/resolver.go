package resolver

import (
	"context"
	"sync"

	"github.com/modfetch/modfetch/internal/api"
)

// Resolved is a project pinned to the version and file selected for one
// (game version, loader) target.
type Resolved struct {
	Project *api.ProjectInfo
	Version *api.VersionInfo
	File    *api.FileInfo
}

// Resolver maps a configured identifier (id or slug) to a project, best
// matching version and primary file. Project lookups are memoized per
// resolver instance keyed by the identifier string, so repeated resolution
// of the same identifier never re-issues the request.
type Resolver struct {
	client *api.Client

	mu   sync.Mutex
	memo map[string]*api.ProjectInfo
}

func New(client *api.Client) *Resolver {
	return &Resolver{
		client: client,
		memo:   make(map[string]*api.ProjectInfo),
	}
}

// Resolve returns absent (nil, nil) when the project or a matching
// version/file does not exist; transport failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, identifier, gameVersion string, loader api.Loader, specific string) (*Resolved, error) {
	if identifier == "" {
		return nil, nil
	}

	project, err := r.project(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	version, file, err := r.client.GetVersion(ctx, project.ID, gameVersion, loader, specific)
	if err != nil {
		return nil, err
	}
	if version == nil || file == nil {
		return nil, nil
	}

	return &Resolved{Project: project, Version: version, File: file}, nil
}

func (r *Resolver) project(ctx context.Context, identifier string) (*api.ProjectInfo, error) {
	r.mu.Lock()
	project, cached := r.memo[identifier]
	r.mu.Unlock()

	if cached {
		return project, nil
	}

	project, err := r.client.GetProject(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if project != nil {
		r.mu.Lock()
		r.memo[identifier] = project
		r.mu.Unlock()
	}

	return project, nil
}
