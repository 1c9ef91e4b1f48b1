package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modfetch/modfetch/internal/errs"
	"github.com/modfetch/modfetch/internal/logger"
)

const (
	// DefaultMaxConcurrent is forced whenever the configured worker count is
	// not a positive integer.
	DefaultMaxConcurrent = 5

	defaultMaxRetries = 3
	defaultRetryDelay = time.Second

	copyChunkSize = 8192

	// progressStep is the minimum percentage gain between progress events.
	progressStep = 5.0
)

// Stats are the monotonic counters of one manager run. Owned exclusively by
// the manager; callers get copies.
type Stats struct {
	Total           int
	Completed       int
	Failed          int
	Skipped         int
	BytesDownloaded int64
}

// ProgressFunc receives per-file progress in whole-run percent. Only called
// when the server declared a total size.
type ProgressFunc func(filename string, percent float64)

// Config tunes one manager run.
type Config struct {
	MaxConcurrent int
	MaxRetries    int
	RetryDelay    time.Duration
}

// Manager drains a task queue through a fixed pool of workers, verifying,
// retrying and accounting along the way.
type Manager struct {
	cfg      Config
	queue    *Queue
	client   *http.Client
	owned    bool
	progress ProgressFunc

	mu     sync.Mutex
	stats  Stats
	failed []string
}

type ManagerOption func(*Manager)

// WithClient injects a shared http.Client; the caller keeps ownership and
// Close will not touch it.
func WithClient(hc *http.Client) ManagerOption {
	return func(m *Manager) {
		m.client = hc
		m.owned = false
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) ManagerOption {
	return func(m *Manager) {
		m.progress = fn
	}
}

func NewManager(cfg Config, opts ...ManagerOption) *Manager {
	if cfg.MaxConcurrent <= 0 {
		logger.Warnf("invalid max_concurrent %d, using default %d", cfg.MaxConcurrent, DefaultMaxConcurrent)
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	m := &Manager{
		cfg:   cfg,
		queue: NewQueue(),
		client: &http.Client{
			Transport: &http.Transport{
				// Bound the silent phases of a transfer without capping the
				// body read, so large files are never killed mid-stream.
				ResponseHeaderTimeout: 30 * time.Second,
				TLSHandshakeTimeout:   15 * time.Second,
			},
		},
		owned: true,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Enqueue adds a task to the queue. Duplicate (url, filename) pairs are
// dropped and do not count toward the total.
func (m *Manager) Enqueue(url, filename, dir, sha1 string, category Category, priority Priority) bool {
	added := m.queue.Add(&Task{
		URL:      url,
		Filename: filename,
		Dir:      dir,
		SHA1:     sha1,
		Category: category,
		Priority: priority,
	})

	if added {
		m.mu.Lock()
		m.stats.Total++
		m.mu.Unlock()
		logger.Debugf("queued %s '%s'", category, filename)
	}

	return added
}

// Run starts the worker pool and returns once the queue has drained and all
// in-flight tasks have finished, or once ctx is cancelled. A task's permanent
// failure never stops its worker or the run.
func (m *Manager) Run(ctx context.Context) error {
	logger.Infof("starting downloads with %d workers", m.cfg.MaxConcurrent)

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < m.cfg.MaxConcurrent; i++ {
		g.Go(func() error {
			return m.worker(ctx)
		})
	}

	return g.Wait()
}

// Close releases the owned http.Client. Injected clients are left alone.
func (m *Manager) Close() {
	if m.owned {
		m.client.CloseIdleConnections()
	}
}

// Stats returns a snapshot of the run counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}

// Failed returns the filenames that exhausted their retry budget.
func (m *Manager) Failed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.failed))
	copy(out, m.failed)

	return out
}

func (m *Manager) worker(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		task, ok := m.queue.Pop()
		if !ok {
			return nil
		}

		m.process(ctx, task)
	}
}

func (m *Manager) process(ctx context.Context, task *Task) {
	if err := os.MkdirAll(task.Dir, 0o755); err != nil {
		logger.Errorf("cannot create %s: %v", task.Dir, err)
		m.recordFailure(task.Filename)
		return
	}

	if src, isLocal := strings.CutPrefix(task.URL, "file://"); isLocal {
		m.copyLocal(src, task)
		return
	}

	if IsValid(task.Path(), task.SHA1) {
		m.mu.Lock()
		m.stats.Skipped++
		m.mu.Unlock()
		logger.Infof("skipped '%s': already present and valid", task.Filename)
		return
	}

	logger.Infof("downloading '%s'", task.Filename)

	var err error
	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		err = m.downloadOnce(ctx, task)
		if err == nil {
			m.mu.Lock()
			m.stats.Completed++
			m.mu.Unlock()
			logger.Infof("completed '%s'", task.Filename)
			return
		}

		// A failed attempt never leaves a partial file behind.
		if rmErr := os.Remove(task.Path()); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warnf("cannot remove partial file %s: %v", task.Path(), rmErr)
		}

		if ctx.Err() != nil {
			return
		}

		if attempt < m.cfg.MaxRetries && errs.IsRetryable(err) {
			delay := m.cfg.RetryDelay * (1 << uint(attempt))
			logger.Warnf("download '%s' failed (attempt %d): %v, retrying in %s", task.Filename, attempt+1, err, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}

			continue
		}

		break
	}

	m.recordFailure(task.Filename)
	logger.Errorf("download '%s' failed permanently: %v", task.Filename, err)
}

func (m *Manager) downloadOnce(ctx context.Context, task *Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return errs.NewIOError(err, task.URL)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return errs.NewNetworkError(err, task.URL, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.NewNetworkError(fmt.Errorf("unexpected status %s", resp.Status), task.URL, resp.StatusCode)
	}

	total := resp.ContentLength
	if total > 0 {
		logger.Debugf("'%s' is %.2f MB", task.Filename, float64(total)/(1024*1024))
	}

	out, err := os.Create(task.Path())
	if err != nil {
		return errs.NewIOError(err, task.Path())
	}

	var (
		downloaded   int64
		lastReported float64
		buf          = make([]byte, copyChunkSize)
	)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				return errs.NewIOError(writeErr, task.Path())
			}

			downloaded += int64(n)
			m.mu.Lock()
			m.stats.BytesDownloaded += int64(n)
			m.mu.Unlock()

			if total > 0 {
				percent := float64(downloaded) / float64(total) * 100
				if percent-lastReported >= progressStep {
					lastReported = percent
					if m.progress != nil {
						m.progress(task.Filename, percent)
					}
					logger.Debugf("progress '%s': %.1f%%", task.Filename, percent)
				}
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			return errs.NewNetworkError(readErr, task.URL, 0)
		}
	}

	if err := out.Close(); err != nil {
		return errs.NewIOError(err, task.Path())
	}

	if task.SHA1 != "" {
		digest, err := HashFile(task.Path())
		if err != nil {
			return errs.NewIOError(err, task.Path())
		}
		if digest != task.SHA1 {
			return errs.NewChecksumError(task.Filename, task.SHA1, digest)
		}
	}

	return nil
}

// copyLocal handles file:// tasks: directories are replaced recursively,
// single files copied with metadata preserved. Failures count as download
// failures; no retry budget applies.
func (m *Manager) copyLocal(src string, task *Task) {
	logger.Infof("copying local '%s'", filepath.Base(src))

	info, err := os.Stat(src)
	if err == nil {
		if info.IsDir() {
			err = copyTree(src, task.Path())
		} else {
			err = copyFile(src, task.Path(), info)
		}
	}

	if err != nil {
		logger.Errorf("copy '%s' failed: %v", src, err)
		m.recordFailure(task.Filename)
		return
	}

	m.mu.Lock()
	m.stats.Completed++
	m.mu.Unlock()
}

func (m *Manager) recordFailure(filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Failed++
	m.failed = append(m.failed, filename)
}

func copyTree(src, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		return copyFile(path, target, info)
	})
}

func copyFile(src, dest string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dest, time.Now(), info.ModTime())
}
