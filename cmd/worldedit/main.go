package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/df-mc/worldedit/server"
	"github.com/df-mc/worldedit/server/console"
)

func main() {
	configPath := flag.String("config", "config.toml", "path of the configuration file (.toml, .yaml or .yml)")
	debug := flag.Bool("debug", false, "log debug messages")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	uc, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Error("Load configuration.", "error", err)
		os.Exit(1)
	}
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("Apply configuration.", "error", err)
		os.Exit(1)
	}
	conf.File = *configPath

	srv, err := conf.New()
	if err != nil {
		log.Error("Create server.", "error", err)
		os.Exit(1)
	}
	srv.CloseOnProgramEnd()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-srv.Closed()
		cancel()
	}()
	go console.New(log).Run(ctx)

	<-srv.Closed()
}
