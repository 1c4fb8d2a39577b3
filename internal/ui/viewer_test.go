package ui

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/ytget/video-thumb/internal/config"
)

func writeJPEG(t *testing.T, width, height int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thumbnail.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height)), nil); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
	return path
}

func TestSystemViewerDisplay(t *testing.T) {
	var opened string
	v := &SystemViewer{open: func(path string) error {
		opened = path
		return nil
	}}

	if err := v.Display(context.Background(), "/tmp/thumbnail.jpg"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if opened != "/tmp/thumbnail.jpg" {
		t.Errorf("Expected opener to receive path, got %q", opened)
	}

	v.open = func(string) error { return errors.New("no xdg-open") }
	err := v.Display(context.Background(), "/tmp/thumbnail.jpg")
	if err == nil || !strings.Contains(err.Error(), "no xdg-open") {
		t.Errorf("Expected wrapped opener error, got %v", err)
	}
}

func TestWindowViewerNewWindow(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	path := writeJPEG(t, 640, 360)
	w, err := NewWindowViewer(app).NewWindow(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer w.Close()

	if !strings.Contains(w.Title(), "thumbnail.jpg") {
		t.Errorf("Expected title to name the file, got %q", w.Title())
	}
	if w.Content() == nil {
		t.Fatal("Expected window content")
	}
}

func TestWindowViewerMissingFile(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	_, err := NewWindowViewer(app).NewWindow(filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Error("Expected error for missing thumbnail")
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		width, height float32
		expected      fyne.Size
	}{
		{640, 360, fyne.NewSize(640, 360)},
		{2560, 1440, fyne.NewSize(1280, 720)},
		{1000, 2000, fyne.NewSize(400, 800)},
		{100, 50, fyne.NewSize(ViewerMinWidth, ViewerMinHeight)},
		{0, 0, fyne.NewSize(ViewerMinWidth, ViewerMinHeight)},
	}

	for _, tt := range tests {
		if got := fitSize(tt.width, tt.height); got != tt.expected {
			t.Errorf("fitSize(%v, %v) = %v, expected %v", tt.width, tt.height, got, tt.expected)
		}
	}
}

func TestNewDisplayer(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	if _, ok := NewDisplayer(config.ViewerWindow, app).(*WindowViewer); !ok {
		t.Error("Expected WindowViewer for window viewer")
	}
	if _, ok := NewDisplayer(config.ViewerSystem, app).(*SystemViewer); !ok {
		t.Error("Expected SystemViewer for system viewer")
	}
	if _, ok := NewDisplayer(config.ViewerWindow, nil).(*SystemViewer); !ok {
		t.Error("Expected SystemViewer without an app")
	}
}

func TestSystemViewerCancelled(t *testing.T) {
	called := false
	v := &SystemViewer{open: func(string) error {
		called = true
		return nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Display(ctx, "/tmp/thumbnail.jpg"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("Opener must not run after cancellation")
	}
}

func TestCloseOnDone(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	w, err := NewWindowViewer(app).NewWindow(writeJPEG(t, 64, 36))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	closed := make(chan struct{})
	w.SetOnClosed(func() { close(closed) })
	w.Show()

	ctx, cancel := context.WithCancel(context.Background())
	stop := closeOnDone(ctx, w)
	defer stop()
	cancel()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected window to close after cancellation")
	}
}
