package main

import (
	"encoding/json"
	"fmt"

	"media-processor/internal/archive"
	"media-processor/internal/ingest"

	"github.com/spf13/cobra"
)

var reclassifyFlags struct {
	date          string
	previousLabel string
	previousCopy  string
	label         string
}

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify FILE",
	Short: "Classify an image again and re-archive it when the label changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runReclassify,
}

func init() {
	f := reclassifyCmd.Flags()
	f.StringVar(&reclassifyFlags.date, "date", "", "Stored capture date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&reclassifyFlags.previousLabel, "previous-label", "", "Event label currently stored for the file")
	f.StringVar(&reclassifyFlags.previousCopy, "previous-copy", "", "Web path of the current processed copy")
	f.StringVar(&reclassifyFlags.label, "label", "", "Apply this label instead of running the classifier")
}

func runReclassify(cmd *cobra.Command, args []string) error {
	date, err := archive.ParseDate(reclassifyFlags.date)
	if err != nil {
		return err
	}

	p, err := loadProcessor()
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.coordinator.Reclassify(ingest.ReclassifyRequest{
		Path:          args[0],
		CreationDate:  date,
		PreviousLabel: reclassifyFlags.previousLabel,
		PreviousCopy:  reclassifyFlags.previousCopy,
		Label:         reclassifyFlags.label,
	})
	if err != nil {
		return fmt.Errorf("reclassify %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
