package main

import (
	"fmt"
	"io"
	"os"

	"grokparser/core"
	"grokparser/routes"
	utils "grokparser/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := utils.ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	log := utils.InitializeLogger(cfg.LogLevel)

	fetcher, err := utils.NewBrowserFetcher(cfg)
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}

	parser := core.NewFileParser(fetcher, cfg)
	handler := routes.NewHandler(parser)

	e := echo.New()

	// Debug Setting
	e.Logger.SetOutput(io.Discard)
	e.HideBanner = true
	e.Debug = false

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"*"},
		AllowHeaders: []string{"*"},
	}))

	// Parser
	handler.Register(e)

	// Diagnostics
	e.GET("/tls", fetcher.QueryTLSApiRoute)

	log.WithField("cache_dir", cfg.CacheDir).Infof("Server is running on PORT: %d", cfg.Port)
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
