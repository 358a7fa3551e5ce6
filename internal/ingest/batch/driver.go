package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/tunelake/tunelake/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Handler processes one source file inside the supplied transaction and
// returns its outcome counts. Record- and file-level failures are absorbed
// into the counts; a handler never aborts the batch.
type Handler func(ctx context.Context, tx *gorm.DB, path string) Counts

// Driver enumerates source files under a root and routes each through a
// handler with per-file commit granularity.
type Driver struct {
	db            *gorm.DB
	log           *zap.Logger
	ingest        *metrics.Ingest
	workers       int
	progressEvery int
}

// NewDriver builds a driver. ingest may be nil.
func NewDriver(db *gorm.DB, log *zap.Logger, ingest *metrics.Ingest, workers, progressEvery int) *Driver {
	if workers < 1 {
		workers = 1
	}
	if progressEvery < 1 {
		progressEvery = 100
	}
	return &Driver{db: db, log: log, ingest: ingest, workers: workers, progressEvery: progressEvery}
}

// Run walks root recursively for files with the given extension (".trk",
// ".json") and invokes handler for each inside its own transaction. Commit
// failure counts that file as rejected and the batch continues. The walk
// order is filesystem-dependent. Returns the reduced counts; the error is
// non-nil only for run-fatal conditions (unreadable root).
func (d *Driver) Run(ctx context.Context, stage, root, ext string, handler Handler) (Counts, error) {
	files, err := d.enumerate(root, ext)
	if err != nil {
		return Counts{}, err
	}

	total := len(files)
	d.log.Info("batch started",
		zap.String("stage", stage),
		zap.String("root", root),
		zap.String("ext", ext),
		zap.Int("files", total),
		zap.Int("workers", d.workers),
	)

	var stats Stats
	var processed atomic.Int64

	runOne := func(path string) {
		var c Counts
		txErr := d.db.Transaction(func(tx *gorm.DB) error {
			c = handler(ctx, tx, path)
			return nil
		})
		if txErr != nil {
			// The file's writes rolled back; its counts no longer describe
			// anything persisted.
			d.log.Warn("file commit failed", zap.String("path", path), zap.Error(txErr))
			stats.Merge(Counts{Rejected: 1})
			d.ingest.ObserveFile(stage, "commit_failed")
		} else {
			stats.Merge(c)
			d.ingest.ObserveFile(stage, "ok")
		}

		n := processed.Add(1)
		if n%int64(d.progressEvery) == 0 || n == int64(total) {
			d.log.Info("batch progress",
				zap.Int64("processed", n),
				zap.Int("total", total),
				zap.String("path", path),
			)
		}
	}

	if d.workers == 1 {
		for _, path := range files {
			runOne(path)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.workers)
		for _, path := range files {
			path := path
			g.Go(func() error {
				runOne(path)
				return nil
			})
		}
		_ = g.Wait()
	}

	return stats.Counts(), nil
}

func (d *Driver) enumerate(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
