package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a job in a transport-friendly format.
type JobView struct {
	ID               int64           `json:"id"`
	SourceFile       string          `json:"sourceFile"`
	Status           string          `json:"status"`
	Progress         JobProgress     `json:"progress"`
	SourceLanguage   string          `json:"sourceLanguage,omitempty"`
	TargetLanguage   string          `json:"targetLanguage"`
	DetectedLanguage string          `json:"detectedLanguage,omitempty"`
	AwaitingReview   bool            `json:"awaitingReview"`
	OutputFile       string          `json:"outputFile,omitempty"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	ErrorKind        string          `json:"errorKind,omitempty"`
	FileInfo         json.RawMessage `json:"fileInfo,omitempty"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	UpdatedAt        string          `json:"updatedAt,omitempty"`
}

// JobProgress captures progress information for a job.
type JobProgress struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// SegmentView is the transport representation of a transcript segment.
type SegmentView struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptView carries the reviewable transcript for a job.
type TranscriptView struct {
	JobID            int64         `json:"jobId"`
	DetectedLanguage string        `json:"detectedLanguage,omitempty"`
	Segments         []SegmentView `json:"segments"`
}

// ContinueRequest carries optional per-segment text edits applied before a
// reviewed job resumes.
type ContinueRequest struct {
	Texts []string `json:"texts,omitempty"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running     bool           `json:"running"`
	JobStats    map[string]int `json:"jobStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *JobView       `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	JobDBPath    string         `json:"jobDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Pipeline     PipelineStatus `json:"pipeline"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}

// ClearResponse reports how many terminal jobs a bulk clear removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}
