package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/iliyamo/cmapi/internal/stats"
)

// Cache materializes confusion matrices into Blobs and memoizes their
// derived report and plot.  Memoized files are never invalidated: after
// Update, Report and Plot keep returning what was rendered first.
type Cache struct {
	blobs Blobs
}

func NewCache(blobs Blobs) *Cache { return &Cache{blobs: blobs} }

// Materialize builds the matrix for (actual, predicted) and stores it
// under uid.  Vector errors from the statistics engine are returned as-is;
// a failed write is reported as ErrSaveFile.
func (c *Cache) Materialize(ctx context.Context, uid string, actual, predicted []float64) error {
	cm, err := stats.New(actual, predicted)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := cm.Save(&buf); err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrSaveFile, uid, err)
	}
	if err := c.blobs.Put(ctx, KindObject, uid, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFile, uid, err)
	}
	return nil
}

// Update overwrites the matrix stored under uid.  It does not touch any
// memoized report or plot.
func (c *Cache) Update(ctx context.Context, uid string, actual, predicted []float64) error {
	return c.Materialize(ctx, uid, actual, predicted)
}

// Load reads the matrix stored under uid.  Callers are expected to have
// resolved the uid against the metadata store first.
func (c *Cache) Load(ctx context.Context, uid string) (*stats.ConfusionMatrix, error) {
	raw, err := c.blobs.Get(ctx, KindObject, uid)
	if err != nil {
		return nil, err
	}
	return stats.Load(bytes.NewReader(raw))
}

// Report returns the HTML report for uid, rendering and storing it on the
// first call only.
func (c *Cache) Report(ctx context.Context, uid string) ([]byte, error) {
	return c.memoized(ctx, KindReport, uid, (*stats.ConfusionMatrix).RenderHTML)
}

// Plot returns the PNG plot for uid, rendering and storing it on the first
// call only.
func (c *Cache) Plot(ctx context.Context, uid string) ([]byte, error) {
	return c.memoized(ctx, KindPlot, uid, (*stats.ConfusionMatrix).RenderPNG)
}

// PlotPath memoizes the plot like Plot and returns its file path when the
// backend is on local disk.  ok is false for other backends.
func (c *Cache) PlotPath(ctx context.Context, uid string) (path string, ok bool, err error) {
	disk, isDisk := c.blobs.(*DiskBlobs)
	if !isDisk {
		return "", false, nil
	}
	if _, err := c.Plot(ctx, uid); err != nil {
		return "", false, err
	}
	return disk.Path(KindPlot, uid), true, nil
}

func (c *Cache) memoized(ctx context.Context, kind Kind, uid string, render func(*stats.ConfusionMatrix, io.Writer) error) ([]byte, error) {
	exists, err := c.blobs.Exists(ctx, kind, uid)
	if err != nil {
		return nil, err
	}
	if exists {
		return c.blobs.Get(ctx, kind, uid)
	}
	cm, err := c.Load(ctx, uid)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render(cm, &buf); err != nil {
		return nil, fmt.Errorf("render %s for %s: %w", kind, uid, err)
	}
	if err := c.blobs.Put(ctx, kind, uid, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrSaveFile, kind, uid, err)
	}
	// Read back what was stored so the first and later calls return the
	// same bytes.
	out, err := c.blobs.Get(ctx, kind, uid)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %s vanished after write", ErrSaveFile, kind, uid)
	}
	return out, err
}
