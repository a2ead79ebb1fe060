package stitch

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control time in assertions.
var timeNow = time.Now

// timeLayout is RFC3339 with a fixed-width seconds field, so timestamps
// from the same clock compare correctly as strings.
const timeLayout = "2006-01-02T15:04:05Z07:00"
