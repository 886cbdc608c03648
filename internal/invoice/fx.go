package invoice

import (
	"github.com/tradecrew/tradecrew/internal/invoice/repository"
	"github.com/tradecrew/tradecrew/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
