package model

// Package model defines domain data structures shared by the services: the
// download task, the thumbnail task, inspected video information and the status
// enum. Structures are plain values updated under the owning service's lock.
