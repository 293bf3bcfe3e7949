// Package config loads render settings from TOML or YAML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config contains everything the CLI needs to render an image
type Config struct {
	Width     int     `toml:"width" yaml:"width"`
	Height    int     `toml:"height" yaml:"height"`
	TileSize  int     `toml:"tile_size" yaml:"tile_size"`   // Power of two
	Workers   int     `toml:"workers" yaml:"workers"`       // 0 = use CPU count
	Frames    int     `toml:"frames" yaml:"frames"`         // Accumulated frames
	Renderer  string  `toml:"renderer" yaml:"renderer"`     // "obj" or "principled"
	Scene     string  `toml:"scene" yaml:"scene"`
	Texture   string  `toml:"texture" yaml:"texture"`       // Optional image mapped onto the ground
	Mesh      string  `toml:"mesh" yaml:"mesh"`             // Optional PLY placed behind the spheres
	MeshScale float64 `toml:"mesh_scale" yaml:"mesh_scale"` // 0 means 1
	Output    string  `toml:"output" yaml:"output"`
	LogLevel  string  `toml:"log_level" yaml:"log_level"`
}

// Default returns sensible default values
func Default() Config {
	return Config{
		Width:    400,
		Height:   225,
		TileSize: 32,
		Workers:  0, // Auto-detect CPU count
		Frames:   8,
		Renderer: "principled",
		Scene:    "default",
		Output:   "render.png",
		LogLevel: "info",
	}
}

// Validate reports every invalid field, joined
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height))
	}
	if c.TileSize <= 0 || c.TileSize&(c.TileSize-1) != 0 {
		errs = append(errs, fmt.Errorf("%w: tile size %d is not a power of two", ErrInvalidConfig, c.TileSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers))
	}
	if c.Frames <= 0 {
		errs = append(errs, fmt.Errorf("%w: frames %d", ErrInvalidConfig, c.Frames))
	}
	switch c.Renderer {
	case "obj", "principled":
	default:
		errs = append(errs, fmt.Errorf("%w: renderer %q", ErrInvalidConfig, c.Renderer))
	}
	if c.MeshScale < 0 {
		errs = append(errs, fmt.Errorf("%w: mesh scale %g", ErrInvalidConfig, c.MeshScale))
	}
	if c.Output == "" {
		errs = append(errs, fmt.Errorf("%w: empty output path", ErrInvalidConfig))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// Decoder is the interface shared by the TOML and YAML decoders
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a new Decoder for a reader
type DecoderFunc func(r io.Reader) Decoder

// TOML decodes TOML, rejecting unknown keys
func TOML(r io.Reader) Decoder {
	return toml.NewDecoder(r).DisallowUnknownFields()
}

// YAML decodes YAML, rejecting unknown keys
func YAML(r io.Reader) Decoder {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	return d
}

// DecoderFor picks the decoder for a file by its extension
func DecoderFor(filename string) (DecoderFunc, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return nil, fmt.Errorf("config %s: unsupported format", filename)
}

// Read decodes a config from r on top of the defaults and validates it
func Read(r io.Reader, f DecoderFunc) (Config, error) {
	c := Default()
	if err := f(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads a .toml, .yaml or .yml config file
func Load(filename string) (Config, error) {
	f, err := DecoderFor(filename)
	if err != nil {
		return Config{}, err
	}

	fp, err := os.Open(filename)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer fp.Close()

	c, err := Read(bufio.NewReader(fp), f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", filename, err)
	}
	return c, nil
}
