package models

import "strings"

// ShortURL joins a base such as http://host:3000 with an identifier.
func ShortURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + id
}

// NewShortenResponse builds the response for original shortened to id
// under base.
func NewShortenResponse(base, original, id string) ShortenResponse {
	return ShortenResponse{
		OriginalURL: original,
		ShortURL:    ShortURL(base, id),
	}
}
