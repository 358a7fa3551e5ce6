// Package pipeline composes the ingestion stages. Each stage gets its own
// run-log row; stages share nothing in memory and coordinate only through
// the warehouse and the run log, so they can also be invoked one at a time
// via the STAGE setting.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tunelake/tunelake/internal/config"
	"github.com/tunelake/tunelake/internal/ingest/batch"
	"github.com/tunelake/tunelake/internal/ingest/events"
	"github.com/tunelake/tunelake/internal/ingest/songmeta"
	"github.com/tunelake/tunelake/internal/metrics"
	"github.com/tunelake/tunelake/internal/runlog"
	"go.uber.org/zap"
)

// Stage package names recorded in the run log.
const (
	StageSongs  = "ingest.songs"
	StageEvents = "ingest.events"
)

// Source file extensions per stage.
const (
	SongFileExt  = ".trk"
	EventFileExt = ".json"
)

type stage struct {
	name    string
	root    string
	ext     string
	handler batch.Handler
}

type Pipeline struct {
	cfg     config.Config
	log     *zap.Logger
	driver  *batch.Driver
	runlogs *runlog.Factory
	ingest  *metrics.Ingest
	songs   *songmeta.Handler
	events  *events.Handler
}

func New(
	cfg config.Config,
	log *zap.Logger,
	driver *batch.Driver,
	runlogs *runlog.Factory,
	ingest *metrics.Ingest,
	songs *songmeta.Handler,
	eventsHandler *events.Handler,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		log:     log,
		driver:  driver,
		runlogs: runlogs,
		ingest:  ingest,
		songs:   songs,
		events:  eventsHandler,
	}
}

func (p *Pipeline) stages() []stage {
	all := []stage{
		{name: StageSongs, root: p.cfg.SongDataDir, ext: SongFileExt, handler: p.songs.Process},
		{name: StageEvents, root: p.cfg.LogDataDir, ext: EventFileExt, handler: p.events.Process},
	}

	switch p.cfg.Stage {
	case config.StageSongs:
		return all[:1]
	case config.StageEvents:
		return all[1:]
	default:
		return all
	}
}

// Run executes the selected stages in order. Song metadata loads before
// events so the natural-key resolver has dimensions to match against. A
// failed stage is recorded and the next stage still runs; per-file work
// already committed stays committed.
func (p *Pipeline) Run(ctx context.Context) {
	for _, st := range p.stages() {
		p.runStage(ctx, st)
	}
}

func (p *Pipeline) runStage(ctx context.Context, st stage) {
	rec := p.runlogs.Recorder(st.name)
	rec.Start(ctx)

	started := time.Now()
	counts, err := p.drive(ctx, st)
	p.ingest.ObserveDuration(st.name, time.Since(started).Seconds())

	if err != nil {
		p.log.Error("stage failed", zap.String("stage", st.name), zap.Error(err))
		rec.Fail(ctx, err)
		return
	}

	p.ingest.ObserveCounts(st.name, counts.Extracted, counts.Loaded, counts.Rejected)
	rec.Success(ctx, counts.Extracted, counts.Loaded, counts.Rejected)
}

// drive contains a panic from a stage so one poisoned batch cannot take down
// the stages after it.
func (p *Pipeline) drive(ctx context.Context, st stage) (counts batch.Counts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", st.name, r)
		}
	}()
	return p.driver.Run(ctx, st.name, st.root, st.ext, st.handler)
}
