// Package models defines the response data structures the shortener
// returns to HTTP clients.
package models

// ShortenResponse is returned by the shortening endpoint, both when a new
// link is created and when an existing one is reused.
type ShortenResponse struct {
	// OriginalURL is the target exactly as it was submitted.
	OriginalURL string `json:"original_url"`

	// ShortURL is the absolute short link, <scheme>://<host>/<id>.
	ShortURL string `json:"short_url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// NewError builds an ErrorResponse with the error flag set.
func NewError(message string) ErrorResponse {
	return ErrorResponse{Error: true, Message: message}
}
