package quote

import (
	"github.com/tradecrew/tradecrew/internal/quote/repository"
	"github.com/tradecrew/tradecrew/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
