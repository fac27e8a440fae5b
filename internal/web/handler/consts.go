package handler

const (
	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// DefaultPageSize for paginated list endpoints.
	DefaultPageSize = 10

	// MaxPageSize caps client supplied page sizes.
	MaxPageSize = 100
)
