package download

// Package download fetches a remote file over HTTP into the downloads
// directory. It reuses a file that is already present, streams the body
// through a progress counter into a ".part" file, and renames it into place
// once the transfer completes.
