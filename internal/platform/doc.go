package platform

// Package platform contains OS integration glue: filesystem helpers used by
// the download and thumbnail services, and opening files with the system's
// default application.
