package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tunelake/tunelake/internal/config"
	"github.com/tunelake/tunelake/internal/metrics"
	"github.com/tunelake/tunelake/internal/migration"
	"github.com/tunelake/tunelake/internal/pipeline"
	"github.com/tunelake/tunelake/internal/runlog"
	"github.com/tunelake/tunelake/internal/warehouse"
	"github.com/tunelake/tunelake/pkg/db"
	"github.com/tunelake/tunelake/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		metrics.Module,
		migration.Module,

		// Warehouse loading
		warehouse.Module,
		runlog.Module,
		pipeline.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
