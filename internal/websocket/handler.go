package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// localOrigins are accepted in addition to same-host requests.
var localOrigins = []string{"localhost", "localhost:*", "127.0.0.1", "127.0.0.1:*"}

// HandleWebSocket upgrades status display connections and streams hub
// messages to them. Browser pages must be served from this host or
// localhost; clients that send no Origin are always accepted.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: localOrigins})
		if err != nil {
			logger.Warn("websocket accept", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.CloseNow()

		logger.Debug("status client connected", "remote", r.RemoteAddr, "clients", hub.ClientCount()+1)
		NewClient(hub, conn).Run(r.Context())
		logger.Debug("status client disconnected", "remote", r.RemoteAddr)
	}
}
