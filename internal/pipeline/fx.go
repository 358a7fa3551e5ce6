package pipeline

import (
	"context"

	"github.com/tunelake/tunelake/internal/config"
	"github.com/tunelake/tunelake/internal/ingest/batch"
	"github.com/tunelake/tunelake/internal/ingest/events"
	"github.com/tunelake/tunelake/internal/ingest/songmeta"
	"github.com/tunelake/tunelake/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("pipeline",
	fx.Provide(songmeta.NewHandler),
	fx.Provide(events.NewHandler),
	fx.Provide(newDriver),
	fx.Provide(New),
	fx.Invoke(register),
)

func newDriver(db *gorm.DB, log *zap.Logger, ingest *metrics.Ingest, cfg config.Config) *batch.Driver {
	return batch.NewDriver(db, log, ingest, cfg.Workers, cfg.ProgressEvery)
}

// register runs the pipeline once the fx graph is up, then shuts the app
// down. Stage failures land in the run log, not the exit code; only a
// failure to assemble the graph (for one, an unreachable database) aborts
// before any stage runs.
func register(lc fx.Lifecycle, sh fx.Shutdowner, p *Pipeline, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				p.Run(context.Background())
				log.Info("pipeline finished")
				_ = sh.Shutdown()
			}()
			return nil
		},
	})
}
