// Package handler contains the HTTP handlers of the shortener: the landing
// page, the shortening endpoint, the redirect and the ops routes.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/atinyakov/shortlink/internal/models"
)

const (
	requestTimeout = 3 * time.Second

	msgURLRequired    = "URL is required"
	msgURLTooLong     = "URL is too long"
	msgShortenFailed  = "Could not shorten link"
	msgRetrieveFailed = "Could not retrieve link"
	msgNotFound       = "Link not found"
	msgHomeFailed     = "Could not read home"
	msgPingFailed     = "Storage unavailable"
)

// writeJSON encodes v with the given status. Encoding errors after the
// header is sent cannot be reported to the client.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.NewError(message))
}

// scheme is https for TLS connections and http otherwise.
func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// baseURL is <scheme>://<host> as seen by the client.
func baseURL(r *http.Request) string {
	return scheme(r) + "://" + r.Host
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers requests to a known route with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
