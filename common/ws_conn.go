package common

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	WSPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from the SPA origin; the token query parameter is
	// what authenticates the socket.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSConn is a push-only socket: clients never send payloads, only pongs.
type WSConn struct {
	*websocket.Conn
}

func NewWSConn(w http.ResponseWriter, r *http.Request) (*WSConn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	return &WSConn{conn}, nil
}

func (ws *WSConn) WriteMessage(data []byte) error {
	ws.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.Conn.WriteMessage(websocket.TextMessage, data)
}

func (ws *WSConn) Ping() error {
	ws.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.Conn.WriteMessage(websocket.PingMessage, nil)
}

// CloseNormal tells the peer the server is going away.
func (ws *WSConn) CloseNormal() error {
	ws.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}
