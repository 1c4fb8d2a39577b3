package thumbnail

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseMetadata(t *testing.T) {
	raw := `{
		"streams": [
			{"index": 0, "codec_type": "audio", "codec_name": "aac"},
			{"index": 1, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720}
		],
		"format": {"filename": "BigBuckBunny_720p_2800k.mp4", "duration": "596.474195"}
	}`

	info, err := parseMetadata(raw)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Errorf("Expected 1280x720, got %dx%d", info.Width, info.Height)
	}
	if info.Codec != "h264" {
		t.Errorf("Expected codec h264, got %q", info.Codec)
	}
	if info.Duration.Round(time.Second) != 596*time.Second {
		t.Errorf("Expected ~596s, got %v", info.Duration)
	}
}

func TestParseMetadata_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", "ffprobe: command not found"},
		{"audio only", `{"streams":[{"codec_type":"audio"}],"format":{"duration":"3.0"}}`},
		{"empty", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseMetadata(tt.raw); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestFFprobeExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	if _, err := ffprobe(ctx, "video.mp4"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error before running ffprobe, got %v", err)
	}
}
