package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"beamer/internal/config"
	"beamer/internal/daemon"
	"beamer/internal/ipc"
	"beamer/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "beamerd.pid")
	if err := writePIDFile(pidPath); err != nil {
		log.Fatalf("write pid file: %v", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(daemon.Options{Config: cfg, Logger: logger})
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("beamerd shutting down")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
