// Package ws accepts jobs over a websocket: each text message is one job
// envelope, answered by one reply envelope on the same connection.
package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rustyscript/rustyscript/pkg/protocol"
)

// Dispatcher plays a job. *worker.Pool implements it.
type Dispatcher interface {
	Submit(ctx context.Context, job protocol.Job) (protocol.Reply, error)
}

// DefaultReadLimit caps one job message. Larger messages close the
// connection with 1009 (message too big) before anything is parsed.
const DefaultReadLimit = 1 << 20

type Server struct {
	jobs Dispatcher
	log  *log.Logger

	// ReadLimit is the largest accepted message in bytes.
	ReadLimit int64

	upgrader websocket.Upgrader
}

func NewServer(jobs Dispatcher, logger *log.Logger) *Server {
	return &Server{
		jobs:      jobs,
		log:       logger,
		ReadLimit: DefaultReadLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(s.ReadLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		remote := conn.RemoteAddr().String()
		s.log.Printf("ws: %s connected", remote)
		defer s.log.Printf("ws: %s disconnected", remote)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
			typ, msg, err := conn.ReadMessage()
			if err != nil {
				if errors.Is(err, websocket.ErrReadLimit) {
					s.log.Printf("ws: %s: message over %d bytes", conn.RemoteAddr(), s.ReadLimit)
				}
				return
			}
			if typ != websocket.TextMessage {
				continue
			}
			reply := s.dispatch(ctx, msg)
			b, err := reply.Encode()
			if err != nil {
				s.log.Printf("ws: %s: encode reply: %v", remote, err)
				return
			}
			if err := writeText(conn, b); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg []byte) protocol.Reply {
	job, err := protocol.DecodeJob(msg)
	if err != nil {
		return protocol.Failed(err.Error())
	}
	reply, err := s.jobs.Submit(ctx, job)
	if err != nil {
		s.log.Printf("ws: submit: %v", err)
		return protocol.Failed("server busy, try again")
	}
	return reply
}

func writeText(conn *websocket.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
