// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between component boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Notify caps the time allowed for one outbound notification attempt
// (email send or event publish).
const Notify = 10 * time.Second

// Upload caps the time allowed for one remote archive upload.
const Upload = 2 * time.Minute
