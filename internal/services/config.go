package services

import (
	"fmt"
	"strconv"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/gcp"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/raster"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/sscraper"
)

// Defaults for PredictorConfig.
const (
	DefaultDPI              = 200
	DefaultBatchConcurrency = 4
)

// PredictorConfig holds all configuration for the predictor.
type PredictorConfig struct {
	SScraperBin      string
	PdftoppmBin      string
	DPI              int
	BatchConcurrency int
	TempDir          string // empty means os.TempDir()
}

// LoadPredictorConfig loads and validates the predictor's environment variables.
func LoadPredictorConfig() (*PredictorConfig, error) {
	dpi, err := envInt("RASTER_DPI", DefaultDPI)
	if err != nil {
		return nil, err
	}
	concurrency, err := envInt("BATCH_CONCURRENCY", DefaultBatchConcurrency)
	if err != nil {
		return nil, err
	}

	config := &PredictorConfig{
		SScraperBin:      gcp.GetEnv("SSCRAPER_BIN", sscraper.DefaultBinPath),
		PdftoppmBin:      gcp.GetEnv("PDFTOPPM_BIN", raster.DefaultBinPath),
		DPI:              dpi,
		BatchConcurrency: concurrency,
		TempDir:          gcp.GetEnv("PREDICTOR_TEMP_DIR", ""),
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *PredictorConfig) validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("RASTER_DPI must be positive, got %d", c.DPI)
	}
	if c.BatchConcurrency <= 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency)
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
