package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/atinyakov/shortlink/internal/models"
)

// PeerIP returns the address of the connection peer.
func PeerIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// ClientIP returns the peer address, or the X-Real-IP header when the peer
// is inside trusted and so is a proxy allowed to name the client.
func ClientIP(r *http.Request, trusted *net.IPNet) net.IP {
	peer := PeerIP(r)
	if peer == nil || trusted == nil || !trusted.Contains(peer) {
		return peer
	}
	if ip := net.ParseIP(r.Header.Get("X-Real-IP")); ip != nil {
		return ip
	}
	return peer
}

// WithTrustedSubnet rejects requests from outside subnet with 403. A nil
// subnet lets everything through.
func WithTrustedSubnet(subnet *net.IPNet) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if subnet == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, subnet)
			if ip == nil || !subnet.Contains(ip) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(models.NewError("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
