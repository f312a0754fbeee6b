package handler

const (
	apiVersion = "1.0.0"
	appName    = "accounts"
)

// Meta is attached to every response body.
type Meta struct {
	Version string `json:"version"`
	App     string `json:"app"`
}

// Response is the success envelope.
type Response struct {
	Meta    Meta   `json:"meta"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the error envelope. Error is a stable machine-readable code.
type ErrorResponse struct {
	Meta    Meta   `json:"meta"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newMeta() Meta {
	return Meta{Version: apiVersion, App: appName}
}

func success(data any, message string) Response {
	return Response{Meta: newMeta(), Data: data, Message: message}
}

// NewErrorResponse builds the error envelope for the central error handler.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Meta: newMeta(), Error: code, Message: message}
}
