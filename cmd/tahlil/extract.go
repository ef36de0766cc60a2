package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagliklab/tahlil/internal/cli"
	"github.com/sagliklab/tahlil/internal/config"
	"github.com/sagliklab/tahlil/internal/extract"
)

var extractModel string

var extractCmd = &cobra.Command{
	Use:   "extract <report.pdf>",
	Short: "Extract structured test results from a lab report PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if extractModel != "" {
			cfg.Model.Name = extractModel
		}

		pdf, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read PDF: %w", err)
		}

		result, err := extract.Run(cmd.Context(), requestFromConfig(cfg, pdf))
		if err != nil {
			return err
		}
		return cli.Output(result)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractModel, "model", "m", "", "model identifier (overrides config)")
}

// requestFromConfig maps the configuration surface onto a pipeline request.
func requestFromConfig(cfg *config.Config, pdf []byte) extract.Request {
	return extract.Request{
		PDF:             pdf,
		Model:           cfg.Model.Name,
		APIKey:          cfg.Model.APIKey,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
		MaxRetries:      cfg.Model.MaxRetries,
		RetryDelay:      cfg.Model.RetryDelay(),
		Timeout:         cfg.Model.Timeout(),
		PixelThreshold:  cfg.Classifier.ImagePixelThreshold,
		VectorScale:     cfg.Render.VectorScale,
		MaxImageDim:     cfg.Render.MaxImageDimension,
	}
}
