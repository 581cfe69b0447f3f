package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"thermo-monitor/internal/container"
	"thermo-monitor/internal/domain/entity"
	"thermo-monitor/internal/infrastructure/llm"
	"thermo-monitor/internal/infrastructure/vision"
)

var imagePath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [t1 ... t8]",
	Short: "Проанализировать восемь температур или термограмму и вывести результат в JSON",
	Example: `  thermo-monitor analyze 36.4 36.5 36.3 36.4 36.8 37.0 36.9 36.7
  thermo-monitor analyze --image thermal.png`,
	Args: func(cmd *cobra.Command, args []string) error {
		if imagePath != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(entity.ZoneCount)(cmd, args)
	},
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&imagePath, "image", "", "path to a JPEG/PNG thermogram")
}

type analyzeOutput struct {
	Zones      entity.ZoneReading     `json:"zones"`
	Extraction *entity.ExtractionMeta `json:"extraction,omitempty"`
	Analysis   entity.Analysis        `json:"analysis"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := analyzeOutput{}

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		zones, meta := vision.NewColorMappingExtractor().Extract(ctx, data)
		out.Zones = zones
		out.Extraction = &meta
	} else {
		zones, err := parseZones(args)
		if err != nil {
			return err
		}
		out.Zones = zones
	}

	providers := llm.Providers(llm.Config{
		OpenAIKey:     cfg.OpenAIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiKey:     cfg.GeminiKey,
		GeminiModel:   cfg.GeminiModel,
		GeminiBaseURL: cfg.GeminiBaseURL,
	}, logger)
	engine := container.NewEngine(cfg, providers, logger)
	out.Analysis = engine.Analyze(ctx, out.Zones)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseZones(args []string) (entity.ZoneReading, error) {
	values := make([]float64, 0, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return entity.ZoneReading{}, fmt.Errorf("zone %d: %q is not a finite number", i+1, a)
		}
		values = append(values, v)
	}
	return entity.NewZoneReading(values)
}
