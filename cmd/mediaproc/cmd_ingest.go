package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"media-processor/internal/indexer"
	"media-processor/internal/ingest"
	"media-processor/internal/logging"
	"media-processor/internal/memory"
	"media-processor/internal/workers"

	"github.com/spf13/cobra"
)

var ingestFlags struct {
	mime      string
	dir       string
	recursive bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [FILE...]",
	Short: "Run the ingestion pipeline for stored files",
	Long: "Ingest thumbnails, tags, classifies and archives each FILE, or every\n" +
		"media file under --dir. Files are processed concurrently\n" +
		"(INGEST_WORKERS overrides the worker count); results are printed as a\n" +
		"JSON array in input order.",
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 && ingestFlags.dir == "" {
			return errors.New("requires at least one FILE or --dir")
		}
		return nil
	},
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.mime, "mime", "", "MIME type for every file (default: detect from extension)")
	f.StringVar(&ingestFlags.dir, "dir", "", "Ingest every media file under this directory")
	f.BoolVar(&ingestFlags.recursive, "recursive", true, "Descend into subdirectories of --dir")
}

// ingestJob is one file to ingest with the MIME type to declare for it.
type ingestJob struct {
	path string
	mime string
}

// ingestEntry is one element of the ingest output.
type ingestEntry struct {
	Path   string         `json:"path"`
	Result *ingest.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func ingestJobs(ctx context.Context, p *processor, args []string) ([]ingestJob, error) {
	jobs := make([]ingestJob, 0, len(args))
	for _, a := range args {
		jobs = append(jobs, ingestJob{path: a, mime: ingestFlags.mime})
	}
	if ingestFlags.dir == "" {
		return jobs, nil
	}

	opts := indexer.DefaultOptions()
	opts.Recursive = ingestFlags.recursive
	opts.Exclude = []string{p.cfg.ThumbnailsDir, p.cfg.ProcessedDir, p.cfg.ModelsDir}
	files, err := indexer.Scan(ctx, ingestFlags.dir, opts)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		mime := f.MIME
		if ingestFlags.mime != "" {
			mime = ingestFlags.mime
		}
		jobs = append(jobs, ingestJob{path: f.Path, mime: mime})
	}
	return jobs, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	p, err := loadProcessor()
	if err != nil {
		return err
	}
	defer p.Close()

	if missing := p.missingModels(); len(missing) > 0 {
		logging.Warn("Missing model artifacts, classification will report unknown: %v", missing)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	jobs, err := ingestJobs(ctx, p, args)
	if err != nil {
		return err
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	go monitor.Run(ctx)

	entries := make([]ingestEntry, len(jobs))
	n := workers.ForMixed(len(jobs))
	logging.Info("Ingesting %d file(s) with %d worker(s)", len(jobs), n)

	err = workers.Each(ctx, n, len(jobs), func(ctx context.Context, i int) error {
		job := jobs[i]
		entries[i].Path = job.path
		if err := monitor.Wait(ctx); err != nil {
			entries[i].Error = err.Error()
			return nil
		}
		res, err := p.coordinator.Ingest(job.path, job.mime)
		if err != nil {
			logging.Error("Ingest %s: %v", job.path, err)
			entries[i].Error = err.Error()
			return nil
		}
		entries[i].Result = res
		return nil
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	failed := 0
	for _, e := range entries {
		if e.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be ingested", failed, len(entries))
	}
	return nil
}
