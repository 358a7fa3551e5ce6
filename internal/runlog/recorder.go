package runlog

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/tunelake/tunelake/internal/runlog/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder tracks one pipeline-stage invocation in the run_logs table.
//
// Start creates the row in state RUNNING. Exactly one of Success or Fail is
// expected afterwards; either finalizes the row and detaches the recorder.
// Calling Success or Fail before Start has created a row is a silent no-op,
// so a stage that could not even open its log still runs to completion.
type Recorder struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	packageName string
	entry       *domain.RunLog
}

// Factory builds recorders bound to the shared connection and id node.
type Factory struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewFactory(db *gorm.DB, log *zap.Logger, genID *snowflake.Node) *Factory {
	return &Factory{db: db, log: log, genID: genID}
}

// Recorder returns a fresh recorder for one stage invocation.
func (f *Factory) Recorder(packageName string) *Recorder {
	return &Recorder{
		db:          f.db,
		log:         f.log,
		genID:       f.genID,
		packageName: packageName,
	}
}

// Start writes the RUNNING row and assigns log_id. A write failure is logged
// and leaves the recorder detached rather than aborting the stage.
func (r *Recorder) Start(ctx context.Context) {
	entry := &domain.RunLog{
		LogID:       r.genID.Generate(),
		PackageName: r.packageName,
		StartTime:   time.Now().UTC(),
		Status:      domain.StatusRunning,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Error("run log start failed",
			zap.String("package", r.packageName),
			zap.Error(err),
		)
		return
	}
	r.entry = entry
	r.log.Info("run log started",
		zap.String("package", r.packageName),
		zap.Int64("log_id", int64(entry.LogID)),
	)
}

// Success finalizes the row as SUCCESS with the run's counts.
func (r *Recorder) Success(ctx context.Context, extracted, loaded, rejected int64) {
	if r.entry == nil {
		return
	}
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&domain.RunLog{}).
		Where("log_id = ?", r.entry.LogID).
		Updates(map[string]interface{}{
			"end_time":       now,
			"status":         domain.StatusSuccess,
			"rows_extracted": extracted,
			"rows_loaded":    loaded,
			"rows_rejected":  rejected,
		}).Error
	if err != nil {
		r.log.Error("run log success update failed",
			zap.String("package", r.packageName),
			zap.Error(err),
		)
	} else {
		r.log.Info("run log success",
			zap.String("package", r.packageName),
			zap.Int64("extracted", extracted),
			zap.Int64("loaded", loaded),
			zap.Int64("rejected", rejected),
		)
	}
	r.entry = nil
}

// Fail finalizes the row as FAILED with a truncated error message.
func (r *Recorder) Fail(ctx context.Context, cause error) {
	if r.entry == nil {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > domain.MaxErrorLen {
		// Back off to a rune boundary so the stored message stays valid UTF-8.
		cut := domain.MaxErrorLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&domain.RunLog{}).
		Where("log_id = ?", r.entry.LogID).
		Updates(map[string]interface{}{
			"end_time":      now,
			"status":        domain.StatusFailed,
			"error_message": msg,
		}).Error
	if err != nil {
		r.log.Error("run log fail update failed",
			zap.String("package", r.packageName),
			zap.Error(err),
		)
	} else {
		r.log.Warn("run log failed",
			zap.String("package", r.packageName),
			zap.String("error", msg),
		)
	}
	r.entry = nil
}
