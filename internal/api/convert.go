package api

import (
	"encoding/json"
	"path/filepath"
	"slices"

	"subburn/internal/jobs"
	"subburn/internal/pipeline"
	"subburn/internal/stage"
	"subburn/internal/transcript"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) JobView {
	if job == nil {
		return JobView{}
	}

	view := JobView{
		ID:         job.ID,
		SourceFile: job.SourceFile,
		Status:     string(job.Status),
		Progress: JobProgress{
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		SourceLanguage:   job.SourceLanguage,
		TargetLanguage:   job.TargetLanguage,
		DetectedLanguage: job.DetectedLanguage,
		AwaitingReview:   job.AwaitingReview(),
		ErrorMessage:     job.ErrorMessage,
		ErrorKind:        job.ErrorKind,
	}
	if job.Status == jobs.StatusCompleted && job.OutputPath != "" {
		view.OutputFile = filepath.Base(job.OutputPath)
	}
	if job.FileInfo != "" {
		view.FileInfo = json.RawMessage(job.FileInfo)
	}
	if !job.CreatedAt.IsZero() {
		view.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		view.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(records []*jobs.Job) []JobView {
	if len(records) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(records))
	for _, job := range records {
		out = append(out, FromJob(job))
	}
	return out
}

// FromTranscript converts a transcript document into its API representation.
func FromTranscript(jobID int64, doc *transcript.Transcript) TranscriptView {
	view := TranscriptView{JobID: jobID}
	if doc == nil {
		return view
	}
	view.DetectedLanguage = doc.DetectedLanguage
	view.Segments = make([]SegmentView, 0, len(doc.Segments))
	for _, segment := range doc.Segments {
		view.Segments = append(view.Segments, SegmentView{
			Start: segment.Start,
			End:   segment.End,
			Text:  segment.Text,
		})
	}
	return view
}

// FromStatusSummary converts a pipeline status summary to an API payload.
func FromStatusSummary(summary pipeline.StatusSummary) PipelineStatus {
	stats := make(map[string]int, len(summary.JobStats))
	for status, count := range summary.JobStats {
		stats[string(status)] = count
	}

	status := PipelineStatus{
		Running:     summary.Running,
		JobStats:    stats,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		status.LastError = summary.LastError
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		status.LastJob = &last
	}
	return status
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}
