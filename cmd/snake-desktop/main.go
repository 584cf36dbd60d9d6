package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hoshinonyaruko/snake-web/config"
	"github.com/hoshinonyaruko/snake-web/desktop"
	"github.com/hoshinonyaruko/snake-web/logger"
	"github.com/hoshinonyaruko/snake-web/session"
	"github.com/hoshinonyaruko/snake-web/snake"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "./config.json", "path of the JSON config file")
	logLevel := flag.String("log-level", "", "override log_level from the config")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	if err := logger.InitLoggerTo(os.Stderr, level); err != nil {
		return err
	}
	settings, err := cfg.ToSettings()
	if err != nil {
		return err
	}

	game := desktop.New(settings)
	sess, err := session.New(session.Options{
		ID:        "desktop",
		Settings:  settings,
		Renderers: []snake.Renderer{game},
		Inputs:    []snake.InputSource{game},
		Logger:    logger.GetLogger(),
	})
	if err != nil {
		return err
	}
	sess.Start()
	defer sess.Close()

	w, h := game.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Snake")
	return ebiten.RunGame(game)
}
