package constants

const (
	ErrorBadRequest  = "Bad Request"
	ErrorInternal    = "Internal Service Error"
	ErrorBadPlaylist = "Invalid playlist link"
)

// Machine-readable codes carried on websocket error events.
const (
	CodeValidation = "VALIDATION"
	CodeAuth       = "AUTHORIZATION"
	CodeState      = "STATE"
	CodeGateway    = "GATEWAY"
	CodeRate       = "RATE_LIMITED"
)
