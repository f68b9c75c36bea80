package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"concept-visualizer-be/internal/bootstrap"
	"concept-visualizer-be/internal/config"
	"concept-visualizer-be/internal/server"
	"concept-visualizer-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	go func() {
		log.Println("Background: Starting Progress Relay...")
		if err := container.ProgressRelay.Consume(ctx); err != nil {
			log.Printf("Background Progress Relay Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
