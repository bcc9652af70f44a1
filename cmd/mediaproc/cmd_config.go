package main

import (
	"media-processor/internal/config"
	"media-processor/internal/vision"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

// configReport is the document printed by the config command.
type configReport struct {
	Build         config.BuildInfo `yaml:"build"`
	Config        *config.Config   `yaml:"config"`
	Backend       string           `yaml:"backend"`
	MissingModels []string         `yaml:"missingModels,omitempty"`
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	report := configReport{
		Build:         config.GetBuildInfo(),
		Config:        cfg,
		Backend:       cfg.Strategy.Backend(),
		MissingModels: vision.Layout{Dir: cfg.ModelsDir}.Missing(cfg.Strategy),
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
