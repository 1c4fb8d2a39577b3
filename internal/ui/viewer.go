package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"

	"github.com/ytget/video-thumb/internal/config"
	"github.com/ytget/video-thumb/internal/platform"
)

// Displayer shows a finished thumbnail to the user
type Displayer interface {
	Display(ctx context.Context, path string) error
}

// SystemViewer opens the thumbnail with the OS default image application
type SystemViewer struct {
	open func(string) error
}

// NewSystemViewer creates a viewer backed by the platform opener
func NewSystemViewer() *SystemViewer {
	return &SystemViewer{open: platform.OpenFileWithDefaultApp}
}

// Display opens path and returns once the opener has been launched
func (v *SystemViewer) Display(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.open(path); err != nil {
		return fmt.Errorf("failed to open thumbnail: %w", err)
	}
	return nil
}

// WindowViewer shows the thumbnail in a Fyne window
type WindowViewer struct {
	app fyne.App
}

// NewWindowViewer creates a viewer on app
func NewWindowViewer(app fyne.App) *WindowViewer {
	return &WindowViewer{app: app}
}

// Display shows path and blocks until the window is closed or ctx is done
func (v *WindowViewer) Display(ctx context.Context, path string) error {
	w, err := v.NewWindow(path)
	if err != nil {
		return err
	}
	stop := closeOnDone(ctx, w)
	defer stop()
	w.ShowAndRun()
	return nil
}

// closeOnDone closes w from the Fyne thread once ctx is done. The returned
// func detaches the watcher.
func closeOnDone(ctx context.Context, w fyne.Window) func() bool {
	return context.AfterFunc(ctx, func() {
		fyne.Do(w.Close)
	})
}

// NewWindow builds the viewer window for path without showing it
func (v *WindowViewer) NewWindow(path string) (fyne.Window, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load thumbnail: %w", err)
	}
	bounds := img.Bounds()

	name := filepath.Base(path)
	w := v.app.NewWindow(fmt.Sprintf("%s%s%s", ViewerTitlePrefix, MiddleDotSeparator, name))

	picture := canvas.NewImageFromImage(img)
	picture.FillMode = canvas.ImageFillContain
	size := fitSize(float32(bounds.Dx()), float32(bounds.Dy()))
	picture.SetMinSize(fyne.NewSize(ViewerMinWidth, ViewerMinHeight))

	caption := widget.NewLabel(fmt.Sprintf("%s%s%dx%d", name, MiddleDotSeparator, bounds.Dx(), bounds.Dy()))
	caption.Alignment = fyne.TextAlignCenter

	w.SetContent(container.NewBorder(nil, caption, nil, nil, picture))
	w.Resize(fyne.NewSize(size.Width, size.Height+ViewerCaptionSpace))
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape || ev.Name == fyne.KeyQ {
			w.Close()
		}
	})
	return w, nil
}

// fitSize scales an image size into the viewer bounds, keeping aspect
func fitSize(width, height float32) fyne.Size {
	if width <= 0 || height <= 0 {
		return fyne.NewSize(ViewerMinWidth, ViewerMinHeight)
	}
	scale := float32(1)
	if width > ViewerMaxWidth {
		scale = ViewerMaxWidth / width
	}
	if height*scale > ViewerMaxHeight {
		scale = ViewerMaxHeight / height
	}
	w, h := width*scale, height*scale
	if w < ViewerMinWidth {
		w = ViewerMinWidth
	}
	if h < ViewerMinHeight {
		h = ViewerMinHeight
	}
	return fyne.NewSize(w, h)
}

// NewDisplayer returns the displayer for the configured viewer
func NewDisplayer(viewer config.Viewer, app fyne.App) Displayer {
	if viewer == config.ViewerWindow && app != nil {
		return NewWindowViewer(app)
	}
	return NewSystemViewer()
}
