package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"media-processor/internal/archive"
	"media-processor/internal/classify"
	"media-processor/internal/logging"

	"github.com/joho/godotenv"
)

// Config holds all processor configuration
type Config struct {
	StorageDir    string `yaml:"storageDir"`
	UploadsDir    string `yaml:"uploadsDir"`
	ThumbnailsDir string `yaml:"thumbnailsDir"`
	ProcessedDir  string `yaml:"processedDir"`
	ModelsDir     string `yaml:"modelsDir"`

	ThumbnailWidth  int `yaml:"thumbnailWidth"`
	ThumbnailHeight int `yaml:"thumbnailHeight"`

	AIModel           string                `yaml:"aiModel"`
	Strategy          classify.Strategy     `yaml:"-"`
	ReplacePolicy     archive.ReplacePolicy `yaml:"replacePolicy"`
	ClassifierCatalog string                `yaml:"classifierCatalog,omitempty"`

	// Web path prefixes under which the artifact directories are served
	ThumbnailsMount string `yaml:"thumbnailsMount"`
	ProcessedMount  string `yaml:"processedMount"`

	Port           string `yaml:"port"`
	MetricsEnabled bool   `yaml:"metricsEnabled"`
	LogLevel       string `yaml:"logLevel"`
}

const (
	defaultThumbnailSize = 200
	defaultAIModel       = "clip"
)

// LoadConfig loads and validates configuration from the environment. A .env
// file in the working directory is read first if present; variables already
// set in the environment win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if name := os.Getenv("LOG_LEVEL"); name != "" {
		if level, ok := logging.ParseLevel(name); ok {
			logging.SetLevel(level)
		} else {
			logging.Warn("Invalid LOG_LEVEL %q, using %s", name, logging.GetLevel())
		}
	}

	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	storageDir := getEnv("STORAGE_DIR", "./storage")
	uploadsDir := getEnv("UPLOADS_DIR", filepath.Join(storageDir, "uploads"))
	thumbnailsDir := getEnv("THUMBNAILS_DIR", filepath.Join(storageDir, "thumbnails"))
	processedDir := getEnv("PROCESSED_DIR", filepath.Join(storageDir, "processed"))
	modelsDir := getEnv("MODELS_DIR", filepath.Join(storageDir, "models"))
	thumbWidth := getEnvInt("THUMBNAIL_WIDTH", defaultThumbnailSize)
	thumbHeight := getEnvInt("THUMBNAIL_HEIGHT", defaultThumbnailSize)
	aiModel := getEnv("AI_MODEL", defaultAIModel)
	replacePolicy := getEnv("PROCESSED_REPLACE_POLICY", string(archive.PolicyKeep))
	thumbnailsMount := getEnv("THUMBNAILS_MOUNT", "/thumbnails")
	processedMount := getEnv("PROCESSED_MOUNT", "/processed")
	catalog := getEnv("CLASSIFIER_CATALOG", "")
	port := getEnv("PORT", "8080")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  STORAGE_DIR:              %s", storageDir)
	logging.Info("  UPLOADS_DIR:              %s", uploadsDir)
	logging.Info("  THUMBNAILS_DIR:           %s", thumbnailsDir)
	logging.Info("  PROCESSED_DIR:            %s", processedDir)
	logging.Info("  MODELS_DIR:               %s", modelsDir)
	logging.Info("  THUMBNAIL_WIDTH:          %d", thumbWidth)
	logging.Info("  THUMBNAIL_HEIGHT:         %d", thumbHeight)
	logging.Info("  AI_MODEL:                 %s", aiModel)
	logging.Info("  PROCESSED_REPLACE_POLICY: %s", replacePolicy)
	logging.Info("  CLASSIFIER_CATALOG:       %s", valueOr(catalog, "(embedded)"))
	logging.Info("  PORT:                     %s", port)
	logging.Info("  METRICS_ENABLED:          %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:                %s", logging.GetLevel())

	strategy, err := classify.ParseStrategy(aiModel)
	if err != nil {
		return nil, fmt.Errorf("invalid AI_MODEL: %w", err)
	}

	policy, err := archive.ParseReplacePolicy(replacePolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid PROCESSED_REPLACE_POLICY: %w", err)
	}

	if thumbWidth <= 0 {
		logging.Warn("  Invalid THUMBNAIL_WIDTH, using default: %d", defaultThumbnailSize)
		thumbWidth = defaultThumbnailSize
	}
	if thumbHeight <= 0 {
		logging.Warn("  Invalid THUMBNAIL_HEIGHT, using default: %d", defaultThumbnailSize)
		thumbHeight = defaultThumbnailSize
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		ThumbnailWidth:    thumbWidth,
		ThumbnailHeight:   thumbHeight,
		AIModel:           aiModel,
		Strategy:          strategy,
		ReplacePolicy:     policy,
		ClassifierCatalog: catalog,
		ThumbnailsMount:   thumbnailsMount,
		ProcessedMount:    processedMount,
		Port:              port,
		MetricsEnabled:    metricsEnabled,
		LogLevel:          logging.GetLevel().String(),
	}

	dirs := []struct {
		name string
		src  string
		dst  *string
	}{
		{"storage", storageDir, &cfg.StorageDir},
		{"uploads", uploadsDir, &cfg.UploadsDir},
		{"thumbnails", thumbnailsDir, &cfg.ThumbnailsDir},
		{"processed", processedDir, &cfg.ProcessedDir},
		{"models", modelsDir, &cfg.ModelsDir},
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(d.src)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		if err := ensureDirectory(abs, d.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", d.name, err)
		}
		*d.dst = abs
		logging.Info("  %-10s %s", d.name+":", abs)
	}

	for _, d := range []struct{ name, path string }{
		{"thumbnails", cfg.ThumbnailsDir},
		{"processed", cfg.ProcessedDir},
	} {
		if err := testWriteAccess(d.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory is writable", d.name)
	}

	if cfg.ClassifierCatalog != "" {
		abs, err := filepath.Abs(cfg.ClassifierCatalog)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve classifier catalog path: %w", err)
		}
		cfg.ClassifierCatalog = abs
	}

	logging.Info("")
	logging.Info("  Classifier:  %s (backend %s)", cfg.Strategy, cfg.Strategy.Backend())
	logging.Info("  Metrics:     %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// VolumeMap returns the artifact directories keyed by metric volume label.
func (c *Config) VolumeMap() map[string]string {
	return map[string]string{
		"uploads":    c.UploadsDir,
		"thumbnails": c.ThumbnailsDir,
		"processed":  c.ProcessedDir,
		"models":     c.ModelsDir,
	}
}

func logSystemInfo() {
	info := GetBuildInfo()
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Version:         %s (%s)", info.Version, info.Commit)
	logging.Info("  Go version:      %s", info.GoVersion)
	logging.Info("  OS/Arch:         %s/%s", info.OS, info.Arch)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
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

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
