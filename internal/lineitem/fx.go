package lineitem

import (
	"github.com/tradecrew/tradecrew/internal/lineitem/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("lineitem",
	fx.Provide(repository.Provide),
)
