package protocol

import (
	"fmt"
	log "log/slog"
	"time"

	ws "github.com/gorilla/websocket"
)

// WebSocket is the client side of the guide's websocket surface.
type WebSocket struct {
	conn    *ws.Conn
	url     string
	timeout time.Duration
}

func Dial(url string, timeout time.Duration) (*WebSocket, error) {
	log.Debug("Dial websocket", "url", url)

	dialer := *ws.DefaultDialer
	if timeout > 0 {
		dialer.HandshakeTimeout = timeout
	}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &WebSocket{conn: conn, url: url, timeout: timeout}, nil
}

func (web *WebSocket) Close() error {
	msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
	_ = web.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(time.Second))
	return web.conn.Close()
}

func (web *WebSocket) Write(env *Envelope) error {
	payload, err := env.Marshal()
	if err != nil {
		return err
	}
	log.Debug("Write ws", "kind", env.Kind, "bytes", len(payload))
	return web.conn.WriteMessage(ws.TextMessage, payload)
}

type IncomeKind uint

const (
	CONN_CLOSE IncomeKind = iota
	READ_FAILURE
	READ_OK
)

type Income struct {
	Kind IncomeKind
	Env  *Envelope
	Err  error
}

func (web *WebSocket) Read() Income {
	if web.timeout > 0 {
		_ = web.conn.SetReadDeadline(time.Now().Add(web.timeout))
	}

	_, msg, err := web.conn.ReadMessage()
	if err != nil {
		if IsClosed(err) {
			return Income{Kind: CONN_CLOSE, Err: err}
		}
		return Income{Kind: READ_FAILURE, Err: err}
	}

	env, err := Parse(msg)
	if err != nil {
		return Income{Kind: READ_FAILURE, Err: err}
	}

	log.Debug("Read ws", "kind", env.Kind, "bytes", len(msg))
	return Income{Kind: READ_OK, Env: env}
}

// TransmitReceive writes a request and waits for the daemon's reply.
func (web *WebSocket) TransmitReceive(env *Envelope) (*Envelope, error) {
	if err := web.Write(env); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	in := web.Read()
	switch in.Kind {
	case READ_OK:
		return in.Env, nil
	case CONN_CLOSE:
		return nil, fmt.Errorf("connection closed: %w", in.Err)
	default:
		return nil, fmt.Errorf("read: %w", in.Err)
	}
}

func IsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
