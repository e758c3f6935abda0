package media

import "errors"

var (
	// ErrUnsupportedFormat indicates the payload is not an image data URI.
	ErrUnsupportedFormat = errors.New("image must be a valid base64 data URI (data:image/...)")

	// ErrPayloadTooLarge indicates the decoded-size estimate exceeds the limit.
	ErrPayloadTooLarge = errors.New("image exceeds 10MB limit")

	// ErrUpstreamAuth indicates the gateway's own service credentials were refused.
	ErrUpstreamAuth = errors.New("media service authentication failed")

	// ErrUpstreamRejected indicates the service reported the payload is not a valid image.
	ErrUpstreamRejected = errors.New("invalid image file format")

	// ErrTransientIO covers every other upstream failure.
	ErrTransientIO = errors.New("failed to upload image")

	// ErrNotConfigured indicates the deployment has no media credentials.
	ErrNotConfigured = errors.New("media service is not configured")
)
