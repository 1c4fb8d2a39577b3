package ui

import "time"

// Viewer window sizing
const (
	ViewerMinWidth     float32 = 320
	ViewerMinHeight    float32 = 180
	ViewerMaxWidth     float32 = 1280
	ViewerMaxHeight    float32 = 800
	ViewerCaptionSpace float32 = 32
)

// Text fragments
const (
	MiddleDotSeparator = " · "
	ViewerTitlePrefix  = "Thumbnail"
	DownloadBarLabel   = "Downloading"
)

// Progress bar behaviour
const (
	BarWidth       = 40
	BarThrottle    = 65 * time.Millisecond
	BarSpinnerType = 14
)

// Terminal control: carriage return plus erase-line
const clearLine = "\r\x1b[2K"
