package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/ytget/video-thumb/internal/config"
	"github.com/ytget/video-thumb/internal/download"
)

const fakeFFmpegScript = `#!/bin/sh
for a in "$@"; do
	case "$a" in
		*.jpg) out="$a" ;;
	esac
done
cp "$FAKE_FFMPEG_FRAME" "$out"
`

func useTestApp(t *testing.T) fyne.App {
	t.Helper()
	a := test.NewApp()
	orig := newApp
	newApp = func() fyne.App { return a }
	t.Cleanup(func() {
		newApp = orig
		a.Quit()
	})
	return a
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"video-thumb"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg script requires a POSIX shell")
	}
	dir := t.TempDir()

	frame := filepath.Join(dir, "frame.jpg")
	f, err := os.Create(frame)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 48, 27)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	script := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(script, []byte(fakeFFmpegScript), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAKE_FFMPEG_FRAME", frame)
	return script
}

func videoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent() {
			http.Error(w, "unexpected client", http.StatusForbidden)
			return
		}
		if !strings.HasSuffix(r.URL.Path, ".mp4") {
			http.NotFound(w, r)
			return
		}
		w.Write(bytes.Repeat([]byte{0x42}, 1024))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunUsage(t *testing.T) {
	useTestApp(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two arguments", []string{"http://a/x.mp4", "http://b/y.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != exitUsage {
				t.Errorf("Expected exit %d, got %d", exitUsage, code)
			}
			if !strings.Contains(stderr, usageLine) {
				t.Errorf("Expected usage line, got %q", stderr)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	useTestApp(t)

	code, stdout, _ := runCLI(t, "--version")
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout, version) {
		t.Errorf("Expected version %q in output, got %q", version, stdout)
	}
}

func TestRunInvalidFlags(t *testing.T) {
	useTestApp(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown viewer", []string{"--viewer", "hologram", "http://a/x.mp4"}, "unknown viewer"},
		{"width too large", []string{"--width", "100000", "http://a/x.mp4"}, "width must be between"},
		{"negative timeout", []string{"--timeout=-1s", "http://a/x.mp4"}, "timeout must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != exitUsage {
				t.Errorf("Expected exit %d, got %d", exitUsage, code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("Expected %q in stderr, got %q", tt.want, stderr)
			}
		})
	}
}

func TestRunDownloadFailure(t *testing.T) {
	useTestApp(t)
	srv := videoServer(t)

	code, _, stderr := runCLI(t, "--dir", t.TempDir(), "--no-open", srv.URL+"/missing.txt")
	if code != exitError {
		t.Fatalf("Expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(stderr, "failed to download file") || !strings.Contains(stderr, "The server answered HTTP 404") {
		t.Errorf("Expected status error with hint in stderr, got %q", stderr)
	}
}

func TestRunExtractsThumbnail(t *testing.T) {
	useTestApp(t)
	srv := videoServer(t)
	ffmpegPath := fakeFFmpeg(t)

	dir := filepath.Join(t.TempDir(), "downloads")
	thumb := filepath.Join(t.TempDir(), "thumbnail.jpg")
	args := []string{"--dir", dir, "--output", thumb, "--ffmpeg", ffmpegPath, "--no-open", "--plain", srv.URL + "/videos/clip.mp4"}

	code, stdout, stderr := runCLI(t, args...)
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.mp4")); err != nil {
		t.Errorf("Expected downloaded video: %v", err)
	}
	if _, err := os.Stat(thumb); err != nil {
		t.Errorf("Expected thumbnail: %v", err)
	}
	for _, want := range []string{"Downloading file from", "Video Processed! Thumbnail (48x27) saved to " + thumb} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected %q in stdout, got:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Opening thumbnail") {
		t.Error("--no-open must skip displaying")
	}

	code, stdout, _ = runCLI(t, args...)
	if code != 0 {
		t.Fatalf("Expected second run to succeed, got %d", code)
	}
	if !strings.Contains(stdout, "already exists, using downloaded version") {
		t.Errorf("Expected second run to reuse the video, got:\n%s", stdout)
	}
}

func TestRunSaveStoresFlags(t *testing.T) {
	a := useTestApp(t)
	srv := videoServer(t)
	dir := t.TempDir()

	runCLI(t, "--save", "--dir", dir, "--viewer", "window", "--width", "320", "--no-open", srv.URL+"/missing.txt")

	if raw := a.Preferences().String(config.KeySettings); !strings.Contains(raw, `"thumbnail_width":320`) {
		t.Errorf("Expected every flag in the stored settings document, got %s", raw)
	}

	opts := config.NewSettings(a).Options()
	if opts.DownloadDir != dir {
		t.Errorf("Expected saved dir %s, got %s", dir, opts.DownloadDir)
	}
	if opts.Viewer != config.ViewerWindow || opts.ThumbnailWidth != 320 || opts.OpenAfter {
		t.Errorf("Unexpected saved options %+v", opts)
	}
}

func TestRunWithoutSaveKeepsSettings(t *testing.T) {
	a := useTestApp(t)
	srv := videoServer(t)

	runCLI(t, "--dir", t.TempDir(), "--no-open", srv.URL+"/missing.txt")

	if got := config.NewSettings(a).Options().DownloadDir; got != config.DefaultDownloadDir {
		t.Errorf("Expected default dir to stay, got %s", got)
	}
}

func TestErrorMessage(t *testing.T) {
	plain := errorMessage(errors.New("thumbnail: ffmpeg failed"))
	if plain != "error: thumbnail: ffmpeg failed" {
		t.Errorf("Unexpected message %q", plain)
	}

	wrapped := fmt.Errorf("download: %w", &download.StatusError{Code: 403, URL: "http://h/x.mp4"})
	if msg := errorMessage(wrapped); !strings.Contains(msg, "HTTP 403") {
		t.Errorf("Expected HTTP code hint, got %q", msg)
	}
}
