package job

import (
	"github.com/tradecrew/tradecrew/internal/job/repository"
	"github.com/tradecrew/tradecrew/internal/job/service"
	"go.uber.org/fx"
)

var Module = fx.Module("job.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
