package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const sampleReport = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "300"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "format_name": "mov,mp4",
             "duration": "10.010000", "size": "1000", "bit_rate": "32000"}
}`

func TestParseReport(t *testing.T) {
	result, err := Parse([]byte(sampleReport))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: video=%d audio=%d", result.VideoStreamCount(), result.AudioStreamCount())
	}
	w, h, ok := result.VideoSize()
	if !ok || w != 1920 || h != 1080 {
		t.Fatalf("VideoSize = %d x %d (%v)", w, h, ok)
	}
	rate, ok := result.FrameRate()
	if !ok || math.Abs(rate-29.97) > 0.001 {
		t.Fatalf("FrameRate = %v (%v)", rate, ok)
	}
	if got := result.FrameCount(rate); got != 300 {
		t.Fatalf("FrameCount at native rate = %d, want 300", got)
	}
	if got := result.FrameCount(25); got != 250 {
		t.Fatalf("FrameCount at 25 = %d, want 250", got)
	}
	if result.SizeBytes() != 1000 || result.BitRate() != 32000 {
		t.Fatalf("unexpected size/bitrate: %d %d", result.SizeBytes(), result.BitRate())
	}
	if string(result.RawJSON()) != sampleReport {
		t.Fatal("expected raw report to be preserved")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCoverArtIsNotVideo(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "audio", CodecName: "mp3"},
		{CodecType: "video", CodecName: "mjpeg", Width: 500, Height: 500, NBFrames: "1"},
	}}
	if result.VideoStreamCount() != 0 {
		t.Fatalf("expected cover art to be ignored, got %d video streams", result.VideoStreamCount())
	}
	if _, _, ok := result.VideoSize(); ok {
		t.Fatal("expected no video size for audio with cover art")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", CodecName: "h264", RFrameRate: "0/0", AvgFrameRate: "bad"}},
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 || result.BitRate() != 0 {
		t.Fatalf("expected zero size and bitrate, got %d %d", result.SizeBytes(), result.BitRate())
	}
	if _, ok := result.FrameRate(); ok {
		t.Fatal("expected no frame rate")
	}
	if result.FrameCount(25) != 0 {
		t.Fatalf("expected zero frames, got %d", result.FrameCount(25))
	}
}

func TestInspectRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	if err := os.WriteFile(report, []byte(sampleReport), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat " + report + "\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Runner{Binary: stub}.Inspect(context.Background(), "/media/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.FormatName != "mov,mp4" {
		t.Fatalf("unexpected format: %q", result.Format.FormatName)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), stub, "/media/broken.mp4"); err == nil {
		t.Fatal("expected inspect error")
	}
	if _, err := Inspect(context.Background(), stub, "  "); err == nil {
		t.Fatal("expected empty path error")
	}
}
