package main

import (
	_ "embed"
	"errors"
	"flag"
	"os"
	"strings"

	"pixgallery/pkg/config"
	"pixgallery/pkg/log"
	"pixgallery/pkg/server/proxy"
)

//go:embed VERSION
var Version string

func main() {
	// Initialize logger first
	_ = log.Logger

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.LogJSON {
		log.SetJSONOutput(os.Stderr)
	}
	if cfg.Debug {
		log.SetDebugMode()
		log.Debug().Msg("Debug mode enabled")
	}

	log.Info().
		Str("upstream", cfg.UpstreamBaseURL).
		Dur("request_timeout", cfg.RequestTimeout).
		Int("retry_max", cfg.RetryMax).
		Strs("allow_origins", cfg.AllowOrigins).
		Msg("Configured proxy")

	server, err := proxy.NewServer(cfg, strings.TrimSpace(Version))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}
	if err := server.Start(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	os.Exit(0)
}
