package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wI2L/jsondiff"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/internal/session"
	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/storage"
)

const outboundBuffer = 64

// serveWS upgrades the connection and streams every change of the document
// as a JSON patch. Commands received on the socket are applied through the
// session manager, so REST and WebSocket clients of one document share one
// store.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := s.logger.With(
		zap.String("document_id", sess.ID),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	c := &wsConn{
		server: s,
		conn:   conn,
		logger: logger,
		out:    make(chan serverMessage, outboundBuffer),
		cancel: cancel,
	}
	c.attach(sess)
	defer c.detach()

	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

type wsConn struct {
	server *Server
	conn   *websocket.Conn
	logger *zap.Logger
	out    chan serverMessage
	cancel context.CancelFunc

	mu          sync.Mutex
	sess        *session.Session
	unsubscribe func()
}

// attach subscribes to sess and sends its full state.
func (c *wsConn) attach(sess *session.Session) {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.sess = sess
	c.unsubscribe = sess.Subscribe(c.onChange)
	c.mu.Unlock()
	c.enqueue(serverMessage{Type: msgState, Data: stateOf(sess)})
}

func (c *wsConn) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *wsConn) current() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// refresh re-attaches when the session expired and was reopened since the
// connection subscribed.
func (c *wsConn) refresh(ctx context.Context) (*session.Session, error) {
	old := c.current()
	sess, err := c.server.sessions.Get(ctx, old.ID)
	if err != nil {
		return nil, err
	}
	if sess != old {
		c.logger.Debug("websocket re-attached to reopened session")
		c.attach(sess)
	}
	return sess, nil
}

func stateOf(sess *session.Session) formResponse {
	return formResponse{
		ID:      sess.ID,
		State:   sess.State(),
		CanUndo: sess.CanUndo(),
		CanRedo: sess.CanRedo(),
	}
}

// enqueue drops the connection when the client cannot keep up; it can
// reconnect and receive a fresh state.
func (c *wsConn) enqueue(msg serverMessage) {
	select {
	case c.out <- msg:
	default:
		c.logger.Warn("websocket client too slow, closing")
		c.cancel()
	}
}

func (c *wsConn) onChange(change designer.Change) {
	sess := c.current()
	patch, err := jsondiff.Compare(change.Prev, change.Next)
	if err != nil {
		c.logger.Error("state diff failed", zap.Error(err))
		c.enqueue(serverMessage{Type: msgState, Data: stateOf(sess)})
		return
	}
	if len(patch) == 0 {
		return
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		c.logger.Error("encode patch failed", zap.Error(err))
		return
	}
	c.enqueue(serverMessage{Type: msgPatch, Data: patchData{
		Command: change.Command.Name(),
		Patch:   raw,
		CanUndo: sess.CanUndo(),
		CanRedo: sess.CanRedo(),
	}})
}

func (c *wsConn) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "closing")
			return
		case msg := <-c.out:
			if err := wsjson.Write(ctx, c.conn, msg); err != nil {
				if !errors.Is(err, context.Canceled) {
					c.logger.Debug("websocket write failed", zap.Error(err))
				}
				c.cancel()
				return
			}
		}
	}
}

func (c *wsConn) readLoop(ctx context.Context) {
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.logger.Debug("websocket closed", zap.Int("status", int(status)))
			}
			return
		}
		if err := c.server.validate.Struct(msg); err != nil {
			c.sendError(msg.ID, "invalid_message", err.Error())
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *wsConn) handle(ctx context.Context, msg clientMessage) {
	sess, err := c.refresh(ctx)
	if err != nil {
		c.sendError(msg.ID, errorCode(err), err.Error())
		if errors.Is(err, storage.ErrNotFound) {
			c.cancel()
		}
		return
	}
	sessions := c.server.sessions
	switch msg.Type {
	case msgPing:
		c.enqueue(serverMessage{Type: msgPong, RequestID: msg.ID})
	case msgCommand:
		cmds, err := designer.DecodeCommands(msg.Data)
		if err != nil {
			c.sendError(msg.ID, errorCode(err), err.Error())
			return
		}
		if _, err := sessions.Dispatch(ctx, sess.ID, cmds...); err != nil {
			c.sendError(msg.ID, errorCode(err), err.Error())
			return
		}
		c.enqueue(serverMessage{Type: msgAck, RequestID: msg.ID, Data: ackData{}})
	case msgUndo, msgRedo:
		step := sessions.Undo
		if msg.Type == msgRedo {
			step = sessions.Redo
		}
		_, moved, err := step(ctx, sess.ID)
		if err != nil {
			c.sendError(msg.ID, errorCode(err), err.Error())
			return
		}
		c.enqueue(serverMessage{Type: msgAck, RequestID: msg.ID, Data: ackData{Moved: &moved}})
	default:
		c.sendError(msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (c *wsConn) sendError(requestID, code, message string) {
	c.enqueue(serverMessage{
		Type:      msgError,
		RequestID: requestID,
		Data:      errorData{Code: code, Message: message},
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, designer.ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, designer.ErrMalformedCommand):
		return "malformed_command"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
