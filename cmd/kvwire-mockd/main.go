package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kvwire/kvwire/pkg/common"
	"github.com/kvwire/kvwire/pkg/mockserver"
)

var (
	logger  = common.InitLogger().WithName("mockd")
	mockCfg mockserver.Config
)

func main() {
	kctx := kong.Parse(&mockCfg)
	if err := mockCfg.Validate(); err != nil {
		kctx.FatalIfErrorf(err)
	}
	logger.Info("kvwire mock server", "Config", mockCfg)

	srv := mockserver.NewServer(&mockCfg)

	signChan := make(chan os.Signal, 1)
	signal.Notify(signChan, os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logger.Error(err, "An error occurred when the server started.")
		os.Exit(-1)
	case sig := <-signChan:
		logger.Info("Received signal, shutting down...", "Sigs", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
