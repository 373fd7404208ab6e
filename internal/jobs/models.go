package jobs

import (
	"strings"
	"time"

	"subburn/internal/language"
)

// Status represents the lifecycle of a subtitle job.
type Status string

const (
	StatusUploaded              Status = "uploaded"
	StatusExtractingAudio       Status = "extracting_audio"
	StatusTranscribing          Status = "transcribing"
	StatusTranscriptionComplete Status = "transcription_complete"
	StatusTranslating           Status = "translating"
	StatusRendering             Status = "rendering"
	StatusCompleted             Status = "completed"
	StatusFailed                Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to
// daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusUploaded,
	StatusExtractingAudio,
	StatusTranscribing,
	StatusTranscriptionComplete,
	StatusTranslating,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtractingAudio: {},
	StatusTranscribing:    {},
	StatusTranslating:     {},
	StatusRendering:       {},
}

// readyStatuses are the resting states from which a run request can claim a
// job: uploaded starts the transcription phase, transcription_complete starts
// the render phase.
var readyStatuses = []Status{
	StatusUploaded,
	StatusTranscriptionComplete,
}

type statusTransition struct {
	from Status
	to   Status
}

// processing statuses roll back to the resting state that precedes them when
// a crash leaves them orphaned.
var stageRollbackTransitions = []statusTransition{
	{from: StatusExtractingAudio, to: StatusUploaded},
	{from: StatusTranscribing, to: StatusUploaded},
	{from: StatusTranslating, to: StatusTranscriptionComplete},
	{from: StatusRendering, to: StatusTranscriptionComplete},
}

// Progress checkpoints reported as each phase lands.
const (
	ProgressUploaded              = 0
	ProgressAudioExtracted        = 20
	ProgressTranscriptionComplete = 50
	ProgressTranslationComplete   = 80
	ProgressCompleted             = 100
)

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated job counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Waiting    int
	Processing int
	Review     int
	Failed     int
	Completed  int
}

// Job represents a subtitle job persisted in SQLite.
type Job struct {
	ID               int64
	SourceFile       string // original upload filename
	SourcePath       string // stored video path
	AudioPath        string
	TranscriptPath   string
	SubtitlePath     string
	OutputPath       string
	FileInfo         string // ffprobe metadata captured at upload, JSON
	Status           Status
	SourceLanguage   string
	TargetLanguage   string
	DetectedLanguage string
	ErrorMessage     string
	ErrorKind        string
	ProgressPercent  int
	ProgressMessage  string
	RunRequested     bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastHeartbeat    *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// NeedsTranslation reports whether the transcript language differs from the
// requested target language. The detected language wins over the upload hint
// once transcription has filled it in.
func (j Job) NeedsTranslation() bool {
	source := j.DetectedLanguage
	if source == "" {
		source = j.SourceLanguage
	}
	return !language.Equal(source, j.TargetLanguage)
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the job reached a final state.
func (j Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// AwaitingReview reports whether the job is paused for transcript review.
func (j Job) AwaitingReview() bool {
	return j.Status == StatusTranscriptionComplete && !j.RunRequested
}

// SetProgress raises the progress percentage and updates the message.
// Progress never moves backwards.
func (j *Job) SetProgress(percent int, message string) {
	if percent > j.ProgressPercent {
		j.ProgressPercent = percent
	}
	j.ProgressMessage = message
}

// SetFailed marks the job as failed with the given error details. Heartbeat
// and run request are cleared.
func (j *Job) SetFailed(kind, message string) {
	j.Status = StatusFailed
	j.ErrorKind = kind
	j.ErrorMessage = message
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.RunRequested = false
}
