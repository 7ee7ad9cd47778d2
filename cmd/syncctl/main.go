package main

import (
	"context"
	"log"

	"github.com/graintrack/syncengine/internal/cli"
	"github.com/graintrack/syncengine/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
