package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/google/subcommands"

	"chart_backend/internal/cli"
	"chart_backend/internal/feature/ingest/usecase"
	platformhttp "chart_backend/internal/platform/http"
	"chart_backend/internal/platform/logger"
	"chart_backend/internal/shared/ratelimiter"
)

func main() {
	maxBytes := flag.Int64("max-bytes", usecase.DefaultMaxUploadBytes, "maximum accepted file size in bytes")
	timeout := flag.Duration("timeout", 30*time.Second, "timeout for downloading a URL")
	fetchRate := flag.Int("fetch-rate", 30, "maximum URL downloads per minute")
	hourOnly := flag.Bool("hour-only-padding", false, "zero-pad only the hour of TIME values (legacy normalization)")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn or error")
	flag.Parse()

	slog.SetDefault(logger.New(os.Stderr, *logLevel, "text"))

	var opts []usecase.ParserOption
	if *hourOnly {
		opts = append(opts, usecase.WithHourOnlyPadding())
	}
	pipeline := cli.NewPipeline(&cli.Loader{
		Client:   platformhttp.NewHTTPClient(*timeout),
		Limiter:  ratelimiter.NewRateLimiter(*fetchRate, time.Minute),
		MaxBytes: *maxBytes,
	}, usecase.NewParser(opts...))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(pipeline, os.Stdout, os.Stderr) {
		commander.Register(c, "")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
