package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"media-processor/internal/config"
	"media-processor/internal/provision"

	"github.com/spf13/cobra"
)

var provisionFlags struct {
	manifest string
	timeout  time.Duration
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Download pinned model artifacts into MODELS_DIR",
	Long: "Provision downloads every artifact listed in the manifest, verifies its\n" +
		"SHA-256 and writes it atomically into MODELS_DIR. Artifacts already\n" +
		"present with the pinned checksum are skipped.",
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	f := provisionCmd.Flags()
	f.StringVar(&provisionFlags.manifest, "manifest", "", "Path to the artifact manifest (required)")
	f.DurationVar(&provisionFlags.timeout, "timeout", 30*time.Minute, "Per-artifact download timeout")

	_ = provisionCmd.MarkFlagRequired("manifest")
}

func runProvision(cmd *cobra.Command, _ []string) error {
	m, err := provision.LoadManifest(provisionFlags.manifest)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &provision.Provisioner{
		Dir:    cfg.ModelsDir,
		Client: &http.Client{Timeout: provisionFlags.timeout},
	}
	outcomes, runErr := p.Run(ctx, m)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARTIFACT\tSTATUS\tBYTES\tERROR")
	for _, o := range outcomes {
		msg := ""
		if o.Err != nil {
			msg = o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", o.Name, o.Status, o.Bytes, msg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return runErr
}
