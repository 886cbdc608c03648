package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tradecrew/tradecrew/internal/clock"
	"github.com/tradecrew/tradecrew/internal/config"
	"github.com/tradecrew/tradecrew/internal/logger"
	"github.com/tradecrew/tradecrew/internal/migration"
	"github.com/tradecrew/tradecrew/internal/server"
	"github.com/tradecrew/tradecrew/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
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
