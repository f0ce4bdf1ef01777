package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/clock"
	"github.com/leaseway/leaseway/internal/config"
	"github.com/leaseway/leaseway/internal/logger"
	"github.com/leaseway/leaseway/internal/migration"
	"github.com/leaseway/leaseway/internal/scheduler"
	"github.com/leaseway/leaseway/internal/server"
	"github.com/leaseway/leaseway/pkg/db"
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
		scheduler.Module,
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
