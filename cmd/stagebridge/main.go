package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/bridge"
)

func main() {
	debug := flag.Bool("debug", false, "verbose logging, including the MQTT client")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	bridge.EnableLogging(*debug)

	opts, err := bridge.FromEnv(os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("bad environment")
	}

	b, err := bridge.New(opts.Target, opts.Message, bridge.DefaultTopics())
	if err != nil {
		log.Fatal().Err(err).Msg("control socket")
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("target", opts.Target).Str("message", opts.Message).Msg("stage bridge starting")
	if err := b.Run(ctx, opts); err != nil {
		log.Error().Err(err).Msg("stage bridge stopped")
		os.Exit(1)
	}
}
