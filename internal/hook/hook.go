// Package hook is the compiled-in extension-point registry. Handlers are
// registered at startup and called in registration order at fixed points of
// the pipeline; a handler error is collected and logged, never aborting the
// run.
package hook

import (
	"context"
	"fmt"
	"sync"

	"github.com/modfetch/modfetch/internal/api"
	"github.com/modfetch/modfetch/internal/logger"
)

// Point is a pipeline extension point.
type Point int

const (
	PreResolve Point = iota
	PostResolve
	PreDownload
	PostDownload
	PrePackage
	PostPackage
)

func (p Point) String() string {
	switch p {
	case PreResolve:
		return "pre-resolve"
	case PostResolve:
		return "post-resolve"
	case PreDownload:
		return "pre-download"
	case PostDownload:
		return "post-download"
	case PrePackage:
		return "pre-package"
	case PostPackage:
		return "post-package"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Event carries the pipeline state relevant at a point. Fields are set when
// they apply: Project/File around resolution, ArchivePath around packaging.
type Event struct {
	GameVersion string
	Loader      api.Loader
	Project     *api.ProjectInfo
	File        *api.FileInfo
	ArchivePath string
}

// Handler observes pipeline events.
type Handler interface {
	Name() string
	Handle(ctx context.Context, point Point, event *Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, point Point, event *Event) error
}

func (h HandlerFunc) Name() string {
	return h.HandlerName
}

func (h HandlerFunc) Handle(ctx context.Context, point Point, event *Event) error {
	return h.Fn(ctx, point, event)
}

// Registry holds the ordered handler list.
type Registry struct {
	mu       sync.Mutex
	handlers []Handler
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, h)
}

// Fire calls every handler in registration order and returns the collected
// errors. Failures are logged and do not stop later handlers.
func (r *Registry) Fire(ctx context.Context, point Point, event *Event) []error {
	r.mu.Lock()
	handlers := make([]Handler, len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.Unlock()

	var failures []error

	for _, h := range handlers {
		if err := h.Handle(ctx, point, event); err != nil {
			logger.Warnf("hook %s failed at %s: %v", h.Name(), point, err)
			failures = append(failures, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}

	return failures
}
