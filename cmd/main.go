package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/saker-ai/live-interpreter/pkg/runtime"
)

func main() {
	configPath := flag.String("config", "", "path to conf.yaml (defaults to the nearest conf.yaml, then embedded defaults)")
	noPrompt := flag.Bool("no-prompt", false, "do not read language selections from stdin")
	flag.Parse()

	rt, err := runtime.New(*configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		defer fallback.Sync()
		fallback.Fatal("failed to start interpreter", zap.Error(err))
	}
	logger := rt.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var in io.Reader
	if !*noPrompt {
		in = os.Stdin
	}
	runErr := rt.Run(ctx, in)
	if runErr != nil {
		logger.Error("interpreter session ended with error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), runtime.ShutdownTimeout)
	defer cancel()
	if err := rt.Shutdown(shutdownCtx); err != nil {
		logger.Error("interpreter shutdown failed", zap.Error(err))
	}
	if runErr != nil {
		cancel()
		stop()
		os.Exit(1)
	}
}
