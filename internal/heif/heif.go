package heif

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"sync"

	"media-processor/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

// ErrNotInitialized is returned by Decode before Init has been called.
var ErrNotInitialized = errors.New("libvips not initialized")

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// vipsLogLevel maps the application log level to the most verbose libvips
// level that should still be forwarded.
func vipsLogLevel(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelWarn:
		return vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical
	default:
		return vips.LogLevelWarning
	}
}

func logHandler(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// Init starts libvips. It is safe to call more than once; only the first call
// does any work. libvips messages are routed through the logging package.
func Init() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup
	vips.LoggingSettings(logHandler, vipsLogLevel(logging.GetLevel()))

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// Shutdown releases libvips resources.
func Shutdown() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// Available reports whether Init has run.
func Available() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// Decode loads a HEIC/HEIF file, applies its EXIF orientation and returns the
// pixels. It satisfies decode.HEIFFunc.
func Decode(path string) (image.Image, error) {
	if !Available() {
		return nil, ErrNotInitialized
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}

	logging.Debug("Vips loaded %s: %dx%d", filepath.Base(path), ref.Width(), ref.Height())

	// PNG keeps the pixels lossless on the way into Go
	buf, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

// Size returns the stored width and height of a HEIC/HEIF file without
// applying its EXIF orientation. It satisfies decode.HEIFSizeFunc.
func Size(path string) (width, height int, err error) {
	if !Available() {
		return 0, 0, ErrNotInitialized
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return 0, 0, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	return ref.Width(), ref.Height(), nil
}
