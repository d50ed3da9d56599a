// Package artifact is the file cache that sits next to the metadata store:
// serialized confusion matrices, rendered HTML reports and rendered plots,
// all keyed by matrix uid.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Kind names one family of cached files.
type Kind string

const (
	KindObject Kind = "cms"
	KindReport Kind = "reports"
	KindPlot   Kind = "plots"
)

// Ext is the file extension used for a kind.
func (k Kind) Ext() string {
	switch k {
	case KindObject:
		return ".obj"
	case KindReport:
		return ".html"
	case KindPlot:
		return ".png"
	}
	return ""
}

var (
	// ErrNotFound is returned when no file exists for a uid.
	ErrNotFound = errors.New("artifact not found")
	// ErrSaveFile is returned when a cached file could not be written.
	// Handlers surface it as a server error; it is never retried.
	ErrSaveFile = errors.New("artifact save failed")
)

// Blobs stores opaque file contents per (kind, uid).  There is no locking:
// a reader racing a writer on the same uid may see a partial file.
type Blobs interface {
	Get(ctx context.Context, kind Kind, uid string) ([]byte, error)
	Put(ctx context.Context, kind Kind, uid string, data []byte) error
	Exists(ctx context.Context, kind Kind, uid string) (bool, error)
}

// DiskBlobs keeps each kind in its own directory.
type DiskBlobs struct {
	dirs map[Kind]string
}

// NewDiskBlobs creates the three cache roots if they are missing.
func NewDiskBlobs(cmsDir, reportsDir, plotsDir string) (*DiskBlobs, error) {
	d := &DiskBlobs{dirs: map[Kind]string{
		KindObject: cmsDir,
		KindReport: reportsDir,
		KindPlot:   plotsDir,
	}}
	for _, dir := range d.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
		}
	}
	return d, nil
}

// Path is where the file for (kind, uid) lives.
func (d *DiskBlobs) Path(kind Kind, uid string) string {
	return filepath.Join(d.dirs[kind], uid+kind.Ext())
}

func (d *DiskBlobs) Get(_ context.Context, kind Kind, uid string) ([]byte, error) {
	b, err := os.ReadFile(d.Path(kind, uid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (d *DiskBlobs) Put(_ context.Context, kind Kind, uid string, data []byte) error {
	return os.WriteFile(d.Path(kind, uid), data, 0o644)
}

func (d *DiskBlobs) Exists(_ context.Context, kind Kind, uid string) (bool, error) {
	_, err := os.Stat(d.Path(kind, uid))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
