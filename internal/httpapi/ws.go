package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"shareme.org/internal/audit"
	"shareme.org/internal/auth"
	"shareme.org/internal/realtime"
)

const (
	wsSendBuffer   = 32
	wsWriteTimeout = 5 * time.Second
)

// wsConn adapts a websocket to the realtime.Conn contract. Send is
// non-blocking: frames go into a buffered channel drained by a single
// writer goroutine, which keeps per-connection FIFO order without holding
// any registry lock across a network write.
type wsConn struct {
	ws        *websocket.Conn
	sendCh    chan realtime.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		ws:     ws,
		sendCh: make(chan realtime.Envelope, wsSendBuffer),
		done:   make(chan struct{}),
	}
}

var errSendBufferFull = errors.New("ws: send buffer full")

func (c *wsConn) Send(evt realtime.Event) error {
	select {
	case <-c.done:
		return net.ErrClosed
	case c.sendCh <- realtime.Wrap(evt):
		return nil
	default:
		// A connection that cannot keep up is treated as dead; the router
		// will unregister and close it.
		return errSendBufferFull
	}
}

func (c *wsConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

// writePump drains the send channel until the connection dies.
func (c *wsConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.sendCh:
			ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
			err := wsjson.Write(ctx, c.ws, env)
			cancel()
			if err != nil {
				c.Close()
				return
			}
		}
	}
}

// inboundFrame is the union of the three client frame shapes.
type inboundFrame struct {
	Type           string `json:"type"`
	Online         bool   `json:"online"`
	ReceiverID     string `json:"receiverId"`
	Body           string `json:"body"`
	NotificationID string `json:"notificationId"`
}

// ServeWS upgrades the connection after authenticating the ?token= access
// token. The route is public in the HTTP filter because browser WebSocket
// clients cannot set an Authorization header, so authentication happens
// here, before the upgrade.
func (a *API) ServeWS(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		writeAuthError(w, auth.ErrMissingCredentials)
		return
	}
	claims, err := a.authn.Tokens().VerifyAccess(rawToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	profile, err := a.social.ProfileByUsername(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}

	conn := newWSConn(ws)
	a.registry.Register(profile.ID, conn)
	defer func() {
		a.registry.Unregister(profile.ID, conn)
		conn.Close()
	}()
	go conn.writePump()

	_ = audit.LogEvent(r.Context(), "realtime.connected", map[string]any{"user": profile.ID})

	// Reader loop: context dies with the HTTP request, which ends the loop
	// when the client goes away.
	ctx := r.Context()
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			return
		}
		// Any inbound traffic proves the client is alive; refresh the
		// presence TTL so the flag outlives quiet stretches.
		_ = a.presence.Heartbeat(ctx, profile.ID)
		a.dispatchFrame(ctx, profile.ID, frame)
	}
}

// dispatchFrame routes one inbound frame. Delivery is fire-and-forget: a
// frame for an offline peer is dropped silently.
func (a *API) dispatchFrame(ctx context.Context, userID string, frame inboundFrame) {
	switch frame.Type {
	case realtime.KindStatus:
		if err := a.social.ChangeStatus(ctx, userID, frame.Online); err != nil {
			return
		}
		if frame.Online {
			_ = a.presence.SetOnline(ctx, userID)
		} else {
			_ = a.presence.SetOffline(ctx, userID)
		}
		a.events.SendToUser(userID, realtime.StatusChange{UserID: userID, Online: frame.Online})

	case realtime.KindMessage:
		if frame.ReceiverID == "" || frame.Body == "" {
			return
		}
		a.events.SendToUser(frame.ReceiverID, realtime.DirectMessage{
			SenderID:   userID,
			ReceiverID: frame.ReceiverID,
			Body:       frame.Body,
			SentAt:     time.Now().UTC(),
		})

	case realtime.KindNotification:
		notification, err := a.social.Notification(ctx, frame.NotificationID)
		if err != nil {
			return
		}
		a.events.SendToUser(notification.OwnerUserID, realtime.NotificationPing{
			NotificationID: notification.ID,
			OwnerUserID:    notification.OwnerUserID,
		})
	}
}
