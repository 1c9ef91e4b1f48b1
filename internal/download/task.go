package download

import "path/filepath"

// Priority orders queued tasks; lower values drain first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

// Category is the destination subdirectory class of a task.
type Category string

const (
	CategoryMods          Category = "mods"
	CategoryResourcePacks Category = "resourcepacks"
	CategoryShaderPacks   Category = "shaderpacks"
	CategoryFiles         Category = "files"
)

// Task is one file to fetch or copy. Identity for queue-level deduplication
// is the (URL, Filename) pair.
type Task struct {
	URL      string
	Filename string
	Dir      string
	SHA1     string // empty when the source supplied no checksum
	Category Category
	Priority Priority
}

func (t *Task) key() string {
	return t.URL + "\x00" + t.Filename
}

// Path is the task's destination on disk.
func (t *Task) Path() string {
	return filepath.Join(t.Dir, t.Filename)
}
