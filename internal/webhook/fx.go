package webhook

import (
	"github.com/tradecrew/tradecrew/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(service.NewService),
)
