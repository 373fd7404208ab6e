package main

import (
	"log/slog"

	"subburn/internal/config"
	"subburn/internal/extraction"
	"subburn/internal/pipeline"
	"subburn/internal/render"
	"subburn/internal/transcription"
	"subburn/internal/translation"
)

func buildStages(cfg *config.Config, logger *slog.Logger) pipeline.StageSet {
	return pipeline.StageSet{
		Extractor:   extraction.NewStage(cfg, logger),
		Transcriber: transcription.NewStage(cfg, logger),
		Translator:  translation.NewStage(cfg, logger),
		Renderer:    render.NewStage(cfg, logger),
	}
}
