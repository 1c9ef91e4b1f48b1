package resolver

import (
	"context"

	"github.com/modfetch/modfetch/internal/api"
	"github.com/modfetch/modfetch/internal/logger"
)

// DependencyResolver expands a version's required dependencies into their
// transitive closure.
type DependencyResolver struct {
	client *api.Client
}

func NewDependencyResolver(client *api.Client) *DependencyResolver {
	return &DependencyResolver{client: client}
}

// Resolve walks the required-dependency graph reachable from root in
// pre-order. The visited set is local to this call, and ids are marked
// visited before their project is fetched, so cyclic graphs terminate and
// each project is resolved at most once. Dependencies whose project or
// matching version cannot be found are skipped; the walk continues.
func (d *DependencyResolver) Resolve(ctx context.Context, root *api.VersionInfo, gameVersion string, loader api.Loader) ([]Resolved, error) {
	visited := make(map[string]struct{})

	var resolved []Resolved

	// Explicit work stack instead of recursion; pushing a version's
	// dependencies in reverse keeps the traversal pre-order.
	stack := requiredIDs(root, visited)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		project, err := d.client.GetProject(ctx, id)
		if err != nil {
			return resolved, err
		}
		if project == nil {
			logger.Warnf("required dependency '%s' not found, skipping", id)
			continue
		}

		version, file, err := d.client.GetVersion(ctx, id, gameVersion, loader, "")
		if err != nil {
			return resolved, err
		}
		if version == nil || file == nil {
			logger.Warnf("required dependency '%s' has no matching version for %s/%s, skipping", project.Name(), gameVersion, loader)
			continue
		}

		resolved = append(resolved, Resolved{Project: project, Version: version, File: file})
		stack = append(stack, requiredIDs(version, visited)...)
	}

	return resolved, nil
}

// requiredIDs returns the version's unvisited required dependency ids in
// reverse declaration order, marking each visited as it is collected.
func requiredIDs(version *api.VersionInfo, visited map[string]struct{}) []string {
	var ids []string

	for i := len(version.Dependencies) - 1; i >= 0; i-- {
		dep := version.Dependencies[i]
		if dep.Kind != api.DependencyRequired || dep.ProjectID == "" {
			continue
		}
		if _, seen := visited[dep.ProjectID]; seen {
			continue
		}

		visited[dep.ProjectID] = struct{}{}
		ids = append(ids, dep.ProjectID)
	}

	return ids
}
