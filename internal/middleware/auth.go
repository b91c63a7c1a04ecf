package middleware

import (
	"net"
	"net/http"
)

// LocalOnly rejects requests that did not originate on this host. Proxy
// headers are ignored; only the socket peer counts.
func LocalOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := net.ParseIP(remoteHost(r))
		if ip == nil || !ip.IsLoopback() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
