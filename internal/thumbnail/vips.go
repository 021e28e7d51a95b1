package thumbnail

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"photo-gallery/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library.
// This should be called once at startup.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips logging through our leveled logger. Configure BEFORE
	// Startup() so early messages respect LOG_LEVEL.
	var vipsLogLevel vips.LogLevel
	if logging.IsDebugEnabled() {
		vipsLogLevel = vips.LogLevelInfo
	} else {
		vipsLogLevel = vips.LogLevelWarning
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: thumbnailing is bursty and the cache
	// buys little across distinct source files.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// makeWithVips runs the thumbnail pipeline through libvips. Decode-time
// shrinking avoids materializing the full-size source in memory, vips
// applies EXIF orientation itself, and InterestingCentre reproduces the
// center pre-crop. SizeDown keeps the shrink-only contract. Only JPEG and
// PNG targets are handled here; everything else falls back to the pure-Go
// pipeline.
func (e *Engine) makeWithVips(sourcePath, targetPath string, g Geometry) error {
	var data []byte

	ref, err := vips.LoadImageFromFile(sourcePath, vips.NewImportParams())
	if err != nil {
		return fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	interest := vips.InterestingNone
	if g.Crop {
		interest = vips.InterestingCentre
	}
	if err := ref.ThumbnailWithSize(g.Width, g.Height, interest, vips.SizeDown); err != nil {
		return fmt.Errorf("vips resize failed: %w", err)
	}

	switch strings.ToLower(filepath.Ext(targetPath)) {
	case ".jpg", ".jpeg":
		params := vips.NewJpegExportParams()
		params.Quality = e.save.JPEGQuality
		data, _, err = ref.ExportJpeg(params)
	case ".png":
		data, _, err = ref.ExportPng(vips.NewPngExportParams())
	default:
		return fmt.Errorf("vips path does not encode %s", filepath.Ext(targetPath))
	}
	if err != nil {
		return fmt.Errorf("vips export failed: %w", err)
	}

	logging.Debug("thumbnail: vips generated %s (%d bytes)", filepath.Base(targetPath), len(data))
	return writeFileAtomic(targetPath, data)
}
