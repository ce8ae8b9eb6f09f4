package models

// ErrorResponse describes an error with an HTTP status code and a message.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// NewErrorResponse creates a new error with a status code and message.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// NewErrorResponseDetails creates a new error carrying extra detail text.
func NewErrorResponseDetails(statusCode int, message, details string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
		Details:    details}
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return e.Message
}
