package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-tile-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	workers := flag.Int("workers", 0, "Number of parallel workers per render (0 = use CPU count)")
	verbose := flag.Bool("v", false, "Verbose (debug) logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Create and start web server
	webServer := server.NewServer(*port, *workers, logger)

	logger.Info("tile raytracer web server", "url", webServer.URL())

	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
