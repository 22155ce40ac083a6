package constants

const (
	ContentTypeJSON   = "application/json"
	ContentTypeHeader = "Content-Type"

	HeaderRequestID = "X-Request-ID"
)
