package thumbnail

// Package thumbnail extracts a single representative frame from a local
// video with ffmpeg's "thumbnail" filter, verifies the written image and
// optionally scales it to a fixed width.
