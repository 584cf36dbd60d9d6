package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-web/config"
	"github.com/hoshinonyaruko/snake-web/logger"
	"github.com/hoshinonyaruko/snake-web/session"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "./config.json", "path of the JSON config file")
	logFile := flag.String("log-file", "", "write logs to this file (discarded when empty)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	// 终端被游戏占用，日志只能写文件
	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	if err := logger.InitLoggerTo(logOut, cfg.LogLevel); err != nil {
		return err
	}
	settings, err := cfg.ToSettings()
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ui := term.New(screen)
	sess, err := session.New(session.Options{
		ID:        "terminal",
		Settings:  settings,
		Renderers: []snake.Renderer{ui},
		Inputs:    []snake.InputSource{ui},
		Logger:    logger.GetLogger(),
	})
	if err != nil {
		return err
	}
	sess.Start()
	defer sess.Close()

	ui.Run()
	return nil
}
