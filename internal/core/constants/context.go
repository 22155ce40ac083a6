package constants

const (
	ContextRequestIDKey = "request_id" // set by the request logging middleware
)
