package middleware

// Keys under which middleware stores request values in the gin context
const (
	ContextRequestID   = "request_id"
	ContextClientKey   = "client_key"
	ContextSession     = "session"
	ContextAccessToken = "access_token"
)
