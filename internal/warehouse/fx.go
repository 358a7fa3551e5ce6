package warehouse

import (
	"github.com/tunelake/tunelake/internal/warehouse/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("warehouse.repository",
	fx.Provide(repository.Provide),
)
