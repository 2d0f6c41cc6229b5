// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// APIRequest caps a single call from the onboarding service to the
// marketplace REST API. There is no retry; a timeout surfaces as a
// network error to the caller.
const APIRequest = 10 * time.Second

// ImageUpload caps multipart branding uploads, which carry up to 5 MiB.
const ImageUpload = 30 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
