// Command tilerender renders the demo scene with the tile-parallel renderer
// and writes the accumulated image as a PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/df07/go-tile-raytracer/pkg/config"
	"github.com/df07/go-tile-raytracer/pkg/demo"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
)

// options are the command line flags
type options struct {
	configPath string
	watch      bool
	verbose    bool
	help       bool
}

func main() {
	cfg, opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.help {
		printHelp(flag.CommandLine)
		return
	}

	logger := newLogger(cfg, opts.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.watch {
		err = watch(ctx, opts.configPath, cfg, logger)
	} else {
		err = run(ctx, cfg, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

// parseFlags reads the config file named by -config, then applies every flag
// given explicitly on top of it
func parseFlags(fs *flag.FlagSet, args []string) (config.Config, options, error) {
	def := config.Default()
	var opts options
	var cli config.Config

	fs.StringVar(&opts.configPath, "config", "", "Config file (.toml, .yaml or .yml)")
	fs.StringVar(&cli.Renderer, "renderer", def.Renderer, "Renderer: 'obj' or 'principled'")
	fs.StringVar(&cli.Scene, "scene", def.Scene, "Scene: 'default' or 'checker'")
	fs.IntVar(&cli.Width, "width", def.Width, "Image width in pixels")
	fs.IntVar(&cli.Height, "height", def.Height, "Image height in pixels")
	fs.IntVar(&cli.TileSize, "tile", def.TileSize, "Tile size in pixels (power of two)")
	fs.IntVar(&cli.Workers, "workers", def.Workers, "Number of parallel workers (0 = use CPU count)")
	fs.IntVar(&cli.Frames, "frames", def.Frames, "Number of accumulated frames")
	fs.StringVar(&cli.Output, "out", def.Output, "Output PNG path")
	fs.StringVar(&cli.Texture, "texture", def.Texture, "Image file mapped onto the ground")
	fs.StringVar(&cli.Mesh, "mesh", def.Mesh, "PLY mesh placed behind the spheres")
	fs.Float64Var(&cli.MeshScale, "mesh-scale", def.MeshScale, "Scale applied to -mesh (0 = 1)")
	fs.BoolVar(&opts.watch, "watch", false, "Re-render whenever the config file changes")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose (debug) logging")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}
	if opts.watch && opts.configPath == "" {
		return config.Config{}, opts, errors.New("-watch requires -config")
	}

	cfg, err := loadConfig(fs, opts.configPath, cli)
	return cfg, opts, err
}

// loadConfig loads path (or the defaults) and overrides the explicitly set flags
func loadConfig(fs *flag.FlagSet, path string, cli config.Config) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "renderer":
			cfg.Renderer = cli.Renderer
		case "scene":
			cfg.Scene = cli.Scene
		case "width":
			cfg.Width = cli.Width
		case "height":
			cfg.Height = cli.Height
		case "tile":
			cfg.TileSize = cli.TileSize
		case "workers":
			cfg.Workers = cli.Workers
		case "frames":
			cfg.Frames = cli.Frames
		case "out":
			cfg.Output = cli.Output
		case "texture":
			cfg.Texture = cli.Texture
		case "mesh":
			cfg.Mesh = cli.Mesh
		case "mesh-scale":
			cfg.MeshScale = cli.MeshScale
		}
	})

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config, verbose bool) *slog.Logger {
	level, _ := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Tile Raytracer")
	fmt.Println("Usage: tilerender [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	fmt.Println("  default - Three spheres on a ground plane")
	fmt.Println("  checker - Default scene with a checkerboard ground")
	fmt.Println()
	fmt.Println("Add -mesh model.ply to place a PLY model behind the spheres.")
}

// run renders cfg.Frames frames of the configured scene and writes the PNG
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	r, err := demo.New(cfg.Renderer, demo.Options{
		Scene:     cfg.Scene,
		Texture:   cfg.Texture,
		Mesh:      cfg.Mesh,
		MeshScale: cfg.MeshScale,
	}, renderer.Config{NumWorkers: cfg.Workers, Logger: logger})
	if err != nil {
		return err
	}
	defer r.Close()

	fb, err := renderer.NewFramebuffer(cfg.Width, cfg.Height, cfg.TileSize)
	if err != nil {
		return err
	}

	logger.Info("rendering", "renderer", r.Name(), "scene", cfg.Scene,
		"width", cfg.Width, "height", cfg.Height, "frames", cfg.Frames, "workers", r.NumWorkers())

	start := time.Now()
	var faults error
	for frame := 0; frame < cfg.Frames; frame++ {
		stats, err := r.RenderFrame(ctx, fb)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			// Faulted tiles show the background; keep accumulating
			faults = errors.Join(faults, err)
		}
		logger.Debug("frame", "index", frame, "duration", stats.Duration,
			"hits", stats.Hits, "misses", stats.Misses, "trace_failures", stats.TraceFailures,
			"shade_failures", stats.ShadeFailures)
	}
	logger.Info("render completed", "duration", time.Since(start), "frames", fb.Frames())

	if err := writePNG(cfg.Output, fb); err != nil {
		return err
	}
	logger.Info("render saved", "path", cfg.Output)
	return faults
}

func writePNG(path string, fb *renderer.Framebuffer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, fb.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return file.Close()
}

// watch renders once and then again whenever the config file changes,
// cancelling a render still in progress
func watch(ctx context.Context, path string, cfg config.Config, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory; editors often replace the file instead of writing it
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	renderCtx, cancel := context.WithCancel(ctx)
	done := startRender(renderCtx, cfg, logger)

	for {
		select {
		case <-ctx.Done():
			cancel()
			<-done
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				cancel()
				<-done
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			next, err := config.Load(path)
			if err != nil {
				logger.Warn("config reload failed", "path", path, "error", err)
				continue
			}
			logger.Info("config changed, re-rendering", "path", path)

			cancel()
			<-done
			renderCtx, cancel = context.WithCancel(ctx)
			done = startRender(renderCtx, next, logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				cancel()
				<-done
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// startRender runs a render in the background; the returned channel closes when it ends
func startRender(ctx context.Context, cfg config.Config, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("render failed", "error", err)
		}
	}()
	return done
}
