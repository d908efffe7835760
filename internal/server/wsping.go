package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleWSPing is a connectivity probe for clients deciding whether their
// network allows long-lived connections before they open an SSE stream.
// Every received message is answered with "pong".
func handleWSPing(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
		defer cancel()

		for {
			if _, _, err := conn.Read(ctx); err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte("pong")); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
