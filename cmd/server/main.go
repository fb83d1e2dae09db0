package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/config"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/server"
)

func main() {
	configFile := flag.String("config", "", "Optional YAML config file")
	port := flag.String("port", "", "Server port (overrides env)")
	dev := flag.Bool("dev", false, "Development mode (console logs)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	} else {
		cfg = config.LoadOrDefault()
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	srv := server.New(cfg, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
		if err := srv.Close(); err != nil {
			logger.Error("Shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}
