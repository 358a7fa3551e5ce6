package runlog

import "go.uber.org/fx"

var Module = fx.Module("runlog",
	fx.Provide(NewFactory),
)
