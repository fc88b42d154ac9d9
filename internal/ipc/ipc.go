package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"

	"siloso/internal/guide"
)

const DefaultSocketPath = "/tmp/guide.sock"

type Request struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

type Reply struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	View  *guide.View `json:"view,omitempty"`
}

type Handler func(Request) Reply

// StartServer listens on a unix socket and serves one request per
// connection. Close the returned listener to stop.
func StartServer(path string, handler Handler) (io.Closer, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("Control accept failed", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return ln, nil
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		json.NewEncoder(conn).Encode(Reply{Error: fmt.Sprintf("bad request: %v", err)})
		return
	}

	log.Debug("Control request", "cmd", req.Cmd, "arg", req.Arg)

	if err := json.NewEncoder(conn).Encode(handler(req)); err != nil {
		log.Warn("Control reply failed", "err", err)
	}
}

// SendCommand delivers one request and waits up to timeout for the reply.
// Zero timeout waits forever.
func SendCommand(path string, req Request, timeout time.Duration) (Reply, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var rep Reply
	if err := json.NewDecoder(conn).Decode(&rep); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return rep, nil
}
