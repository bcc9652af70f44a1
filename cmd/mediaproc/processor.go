package main

import (
	"fmt"

	"media-processor/internal/archive"
	"media-processor/internal/classify"
	"media-processor/internal/config"
	"media-processor/internal/decode"
	"media-processor/internal/filesystem"
	"media-processor/internal/heif"
	"media-processor/internal/ingest"
	"media-processor/internal/logging"
	"media-processor/internal/memory"
	"media-processor/internal/metadata"
	"media-processor/internal/metrics"
	"media-processor/internal/thumbnail"
	"media-processor/internal/video/cv"
	"media-processor/internal/vision"
	"media-processor/internal/vision/dnn"
)

// processor is the wired ingestion pipeline shared by the commands.
type processor struct {
	cfg         *config.Config
	layout      vision.Layout
	coordinator *ingest.Coordinator
}

// loadProcessor reads the configuration and wires every pipeline component.
// Close must be called when done.
func loadProcessor() (*processor, error) {
	memory.ConfigureFromEnv()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(cfg.VolumeMap()))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics([]string{classify.BackendCLIP, classify.BackendYOLO})
	metrics.AppInfo.WithLabelValues(config.Version, cfg.Strategy.Backend()).Set(1)

	if err := heif.Init(); err != nil {
		logging.Warn("HEIF decoding unavailable: %v", err)
	}
	decoder := decode.New(heif.Decode).WithHEIFSize(heif.Size)
	videos := cv.Opener()

	catalog, err := classify.LoadCatalog(cfg.ClassifierCatalog)
	if err != nil {
		heif.Shutdown()
		return nil, fmt.Errorf("classifier catalog: %w", err)
	}

	layout := vision.Layout{Dir: cfg.ModelsDir}
	classifier := classify.New(cfg.Strategy, decoder, catalog, dnn.Loaders(layout))

	thumbs := thumbnail.New(thumbnail.Options{
		Dir:         cfg.ThumbnailsDir,
		Mount:       cfg.ThumbnailsMount,
		Width:       cfg.ThumbnailWidth,
		Height:      cfg.ThumbnailHeight,
		Decoder:     decoder,
		Videos:      videos,
		Orientation: metadata.ReadOrientation,
	})
	extractor := metadata.NewExtractor(decoder, videos)
	archiver := archive.New(archive.Options{
		Dir:    cfg.ProcessedDir,
		Mount:  cfg.ProcessedMount,
		Policy: cfg.ReplacePolicy,
	})

	return &processor{
		cfg:         cfg,
		layout:      layout,
		coordinator: ingest.New(thumbs, extractor, classifier, archiver),
	}, nil
}

// missingModels lists model files the configured strategy needs but that are
// not in the models directory.
func (p *processor) missingModels() []string {
	return p.layout.Missing(p.cfg.Strategy)
}

func (p *processor) Close() {
	heif.Shutdown()
}
