package config

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/thumbnail"
)

// Preset is a named output geometry for resized photos.
type Preset struct {
	Width  int
	Height int
	Crop   bool
}

// Geometry converts the preset to the thumbnail engine's input.
func (p Preset) Geometry() thumbnail.Geometry {
	return thumbnail.Geometry{Width: p.Width, Height: p.Height, Crop: p.Crop}
}

// Config holds all application configuration.
type Config struct {
	GalleryDir  string
	CacheDir    string
	DatabaseDir string
	Port        string
	MetricsPort string

	MetricsEnabled bool
	ScanInterval   time.Duration
	UseVips        bool

	// Serving
	DebugServe     bool
	SendfileHeader string
	SendfileRoot   string

	// Thumbnailing
	SaveOptions thumbnail.SaveOptions
	Presets     map[string]Preset

	// Derived paths
	DatabasePath string
	ThumbnailDir string
}

// DefaultPresets mirrors the classic gallery configuration: a square
// cropped thumbnail and an uncropped screen-size preview.
const DefaultPresets = "thumb=128x128:crop,standard=768x768"

// Load reads and validates configuration from the environment. A .env file
// in the working directory is honored when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("loaded configuration overrides from .env")
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		GalleryDir:     getEnv("GALLERY_DIR", "/photos"),
		CacheDir:       getEnv("CACHE_DIR", "/cache"),
		DatabaseDir:    getEnv("DATABASE_DIR", "/database"),
		Port:           getEnv("PORT", "8080"),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		UseVips:        getEnvBool("USE_VIPS", true),
		DebugServe:     getEnvBool("DEBUG_SERVE", false),
		SendfileHeader: getEnv("SENDFILE_HEADER", "X-Accel-Redirect"),
		SendfileRoot:   getEnv("SENDFILE_ROOT", ""),
	}

	scanIntervalStr := getEnv("SCAN_INTERVAL", "30m")
	scanInterval, err := time.ParseDuration(scanIntervalStr)
	if err != nil {
		logging.Warn("  Invalid SCAN_INTERVAL %q, using default: 30m", scanIntervalStr)
		scanInterval = 30 * time.Minute
	}
	cfg.ScanInterval = scanInterval

	cfg.SaveOptions = loadSaveOptions()

	cfg.Presets, err = ParsePresets(getEnv("RESIZE_PRESETS", DefaultPresets))
	if err != nil {
		return nil, fmt.Errorf("invalid RESIZE_PRESETS: %w", err)
	}

	logging.Info("  GALLERY_DIR:     %s", cfg.GalleryDir)
	logging.Info("  CACHE_DIR:       %s", cfg.CacheDir)
	logging.Info("  DATABASE_DIR:    %s", cfg.DatabaseDir)
	logging.Info("  PORT:            %s", cfg.Port)
	logging.Info("  METRICS_PORT:    %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED: %v", cfg.MetricsEnabled)
	logging.Info("  SCAN_INTERVAL:   %s", cfg.ScanInterval)
	logging.Info("  DEBUG_SERVE:     %v", cfg.DebugServe)
	logging.Info("  SENDFILE_HEADER: %s", cfg.SendfileHeader)
	logging.Info("  SENDFILE_ROOT:   %s", cfg.SendfileRoot)
	logging.Info("  RESIZE_PRESETS:  %d presets", len(cfg.Presets))
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())

	if err := cfg.resolveDirectories(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PresetNames returns the configured preset names.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	return names
}

func (c *Config) resolveDirectories() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	c.GalleryDir, err = filepath.Abs(c.GalleryDir)
	if err != nil {
		return fmt.Errorf("failed to resolve gallery directory path: %w", err)
	}
	c.CacheDir, err = filepath.Abs(c.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	c.DatabaseDir, err = filepath.Abs(c.DatabaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	c.DatabasePath = filepath.Join(c.DatabaseDir, "gallery.db")
	c.ThumbnailDir = filepath.Join(c.CacheDir, "thumbnails")

	if info, err := os.Stat(c.GalleryDir); err != nil || !info.IsDir() {
		return fmt.Errorf("gallery directory is not usable: %s", c.GalleryDir)
	}
	logging.Info("  Gallery directory:  %s", c.GalleryDir)

	if err := os.MkdirAll(c.DatabaseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := testWriteAccess(c.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  Database directory: %s", c.DatabaseDir)

	// The thumbnail engine expects target directories to exist, so the
	// per-preset cache subdirectories are created here, once.
	for name := range c.Presets {
		dir := filepath.Join(c.ThumbnailDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create thumbnail directory %s: %w", dir, err)
		}
	}
	if err := testWriteAccess(c.ThumbnailDir); err != nil {
		return fmt.Errorf("thumbnail directory is not writable: %w", err)
	}
	logging.Info("  Thumbnail cache:    %s", c.ThumbnailDir)

	return nil
}

func loadSaveOptions() thumbnail.SaveOptions {
	opts := thumbnail.DefaultSaveOptions()

	if q := getEnvInt("JPEG_QUALITY", opts.JPEGQuality); q >= 1 && q <= 100 {
		opts.JPEGQuality = q
	} else {
		logging.Warn("  Invalid JPEG_QUALITY, using default: %d", opts.JPEGQuality)
	}

	switch strings.ToLower(getEnv("PNG_COMPRESSION", "default")) {
	case "default":
		opts.PNGCompression = png.DefaultCompression
	case "none":
		opts.PNGCompression = png.NoCompression
	case "speed":
		opts.PNGCompression = png.BestSpeed
	case "best":
		opts.PNGCompression = png.BestCompression
	default:
		logging.Warn("  Invalid PNG_COMPRESSION, using default")
	}

	return opts
}

// ParsePresets parses a preset list of the form
// "name=WIDTHxHEIGHT[:crop],...". Example: "thumb=128x128:crop,big=1024x768".
func ParsePresets(s string) (map[string]Preset, error) {
	presets := make(map[string]Preset)

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, spec, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("preset %q: missing '='", entry)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("preset %q: empty name", entry)
		}

		var preset Preset
		size, flag, hasFlag := strings.Cut(spec, ":")
		if hasFlag {
			if strings.TrimSpace(flag) != "crop" {
				return nil, fmt.Errorf("preset %q: unknown flag %q", name, flag)
			}
			preset.Crop = true
		}

		w, h, ok := strings.Cut(size, "x")
		if !ok {
			return nil, fmt.Errorf("preset %q: size must be WIDTHxHEIGHT", name)
		}
		var err error
		preset.Width, err = strconv.Atoi(strings.TrimSpace(w))
		if err != nil || preset.Width <= 0 {
			return nil, fmt.Errorf("preset %q: invalid width %q", name, w)
		}
		preset.Height, err = strconv.Atoi(strings.TrimSpace(h))
		if err != nil || preset.Height <= 0 {
			return nil, fmt.Errorf("preset %q: invalid height %q", name, h)
		}

		presets[name] = preset
	}

	if len(presets) == 0 {
		return nil, fmt.Errorf("no presets defined")
	}
	return presets, nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
