package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/roomchat/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := server.NewLogger(cfg.Env)
	logger.Info("server.starting", "env", cfg.Env, "default_room_limit", cfg.Rooms.DefaultLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := server.NewGateway(cfg, logger)
	httpServer := server.CreateServer(cfg.Port, gateway.SetupRoutes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.StartServer(httpServer, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, logger); err != nil {
			return err
		}
		return gateway.Shutdown(cfg.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server.exit", "err", err)
		os.Exit(1)
	}
	logger.Info("server.stopped")
}
