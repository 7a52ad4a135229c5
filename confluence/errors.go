package confluence

// ErrorCode defines error types for Confluence API operations
type ErrorCode string

const (
	// ErrNotFound represents content that does not exist or is not visible
	ErrNotFound ErrorCode = "NotFound"

	// ErrRequestFailed represents a request the API rejected or could not serve
	ErrRequestFailed ErrorCode = "RequestFailed"

	// ErrInvalidResponse represents a response body that could not be decoded
	ErrInvalidResponse ErrorCode = "InvalidResponse"

	// ErrUnavailable represents transient failures worth retrying:
	// transport errors, 429, and 5xx responses
	ErrUnavailable ErrorCode = "ServiceUnavailable"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
