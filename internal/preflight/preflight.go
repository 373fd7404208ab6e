package preflight

import (
	"context"

	"subburn/internal/config"
	"subburn/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	for _, status := range deps.CheckBinaries(deps.MediaRequirements(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available}
		if !status.Available {
			result.Detail = status.Detail
		} else {
			result.Detail = status.Command
		}
		results = append(results, result)
	}

	results = append(results, CheckService(ctx, "Transcriber API", cfg.Transcriber.BaseURL, cfg.Transcriber.APIKey))
	results = append(results, CheckService(ctx, "Translator API", cfg.Translator.BaseURL, cfg.Translator.APIKey))

	return results
}
