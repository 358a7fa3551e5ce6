package migration

import (
	"github.com/tunelake/tunelake/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunPostgres(sqlDB)
		}
		return AutoMigrate(conn)
	}),
)
