package ws

import (
	"net/http"
	"time"

	"teamtask/common"

	"go.uber.org/zap"
)

// TokenValidator resolves a session token to a user id.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// Handler upgrades /ws?token=... requests and attaches them to the hub.
func Handler(hub *Hub, tokens TokenValidator, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := tokens.Validate(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := common.NewWSConn(w, r)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			Conn:   conn,
			UserID: userID,
			Send:   make(chan []byte, 256),
		}

		select {
		case hub.Register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go read(hub, client, logger)
		go write(client, logger)
	}
}

func read(hub *Hub, c *Client, logger *zap.Logger) {
	defer func() {
		hub.leave(c)
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			logger.Debug("websocket read ended", zap.Int64("user_id", c.UserID), zap.Error(err))
			break
		}
	}
}

// write drains Send until the hub closes it, pinging idle connections.
func write(c *Client, logger *zap.Logger) {
	ticker := time.NewTicker(common.WSPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				c.Conn.CloseNormal()
				return
			}
			if err := c.Conn.WriteMessage(msg); err != nil {
				logger.Debug("websocket write failed", zap.Int64("user_id", c.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.Conn.Ping(); err != nil {
				logger.Debug("websocket ping failed", zap.Int64("user_id", c.UserID), zap.Error(err))
				return
			}
		}
	}
}
