package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "24000/1001"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration:   "123.45",
			Size:       "1000",
			FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		},
	}
	if _, ok := result.VideoStream(); !ok {
		t.Fatal("expected a video stream")
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.Resolution() != "1920x1080" {
		t.Fatalf("unexpected resolution: %q", result.Resolution())
	}
	if fps := result.FrameRate(); math.Abs(fps-23.976) > 0.001 {
		t.Fatalf("unexpected frame rate: %v", fps)
	}
	if result.Container() != "mov,mp4,m4a,3gp,3g2,mj2" {
		t.Fatalf("unexpected container: %q", result.Container())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", AvgFrameRate: "0/0"}},
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.FrameRate() != 0 {
		t.Fatalf("expected frame rate 0, got %v", result.FrameRate())
	}
	if result.Resolution() != "" {
		t.Fatalf("expected empty resolution, got %q", result.Resolution())
	}
}

func TestFrameRatePlainNumber(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video", AvgFrameRate: "25"}}}
	if result.FrameRate() != 25 {
		t.Fatalf("unexpected frame rate: %v", result.FrameRate())
	}
}
