package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/ramirezvene/token-desconto/internal/migration"
	"github.com/ramirezvene/token-desconto/internal/server"
	"github.com/ramirezvene/token-desconto/pkg/id"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(RegisterSnowflake),
		fx.Provide(id.NewCodeGenerator),
		server.Module,
		migration.Module,
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
