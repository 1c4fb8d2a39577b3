package ui

// Package ui contains the two user-facing surfaces of the tool: a console
// progress reporter fed by download task updates, and displayers that show the
// finished thumbnail either in the system image viewer or in a Fyne window.
