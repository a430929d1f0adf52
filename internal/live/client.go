package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pinjam-app/pinjam/internal/metrics"
	"github.com/pinjam-app/pinjam/internal/nav"
)

var errUnsupported = errors.New("unsupported message")

// client is one live page. Everything except read runs on the loop
// goroutine.
type client struct {
	conn      *websocket.Conn
	component string
	renderer  Renderer

	public *nav.PublicNavbar
	side   *nav.SideNavbar
	feed   *nav.ScrollFeed

	notifications       <-chan int
	cancelNotifications func()

	dirty     bool
	signedOut bool
	writeErr  error
}

func newClient(conn *websocket.Conn, component string, renderer Renderer) *client {
	return &client{
		conn:      conn,
		component: component,
		renderer:  renderer,
		feed:      nav.NewScrollFeed(),
	}
}

// Navigate implements nav.Navigator by asking the page to load path.
func (c *client) Navigate(path string) {
	c.send(WSMessage{Type: MsgNavigate, Payload: NavigatePayload{Path: path}})
}

func (c *client) toggleSidebar() {
	c.send(WSMessage{Type: MsgSidebar})
}

// run mounts the component, then applies inbound events and badge updates
// until the socket fails, ctx ends, quit closes, or the user signs out. The component is
// unmounted and the reader goroutine has exited when run returns.
func (c *client) run(ctx context.Context, quit <-chan struct{}) {
	frames := make(chan inbound)
	done := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		c.read(frames, done)
	}()
	defer func() {
		close(done)
		// Unblocks ReadMessage.
		_ = c.conn.Close()
		<-readerDone
	}()

	c.mount()
	defer c.unmount()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	c.render()
	for c.writeErr == nil {
		select {
		case m, ok := <-frames:
			if !ok {
				return
			}
			c.handle(ctx, m)
			if c.signedOut {
				c.closeWith(websocket.ClosePolicyViolation, "signed out")
				return
			}
		case n, ok := <-c.notifications:
			if !ok {
				c.notifications = nil
				continue
			}
			c.side.SetNotifCount(n)
			c.render()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		case <-quit:
			c.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// read decodes frames until the socket fails, then closes frames.
func (c *client) read(frames chan<- inbound, done <-chan struct{}) {
	defer close(frames)
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var m inbound
		if err := json.Unmarshal(data, &m); err != nil {
			m = inbound{Type: "invalid"}
		}
		select {
		case frames <- m:
		case <-done:
			return
		}
	}
}

func (c *client) mount() {
	if c.public != nil {
		c.public.OnChange(func() { c.dirty = true })
		c.public.Mount(c.feed)
	}
	metrics.LiveSessions.Inc()
}

func (c *client) unmount() {
	if c.public != nil {
		c.public.Unmount()
	}
	if c.cancelNotifications != nil {
		c.cancelNotifications()
	}
	metrics.LiveSessions.Dec()
}

func (c *client) handle(ctx context.Context, m inbound) {
	var err error
	if c.public != nil {
		err = c.handlePublic(m)
	} else {
		err = c.handleSide(ctx, m)
	}
	if err != nil {
		c.send(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		return
	}
	metrics.NavEventsTotal.WithLabelValues(c.component, string(m.Type)).Inc()
	if c.dirty {
		c.render()
	}
}

func (c *client) handlePublic(m inbound) error {
	switch m.Type {
	case MsgScroll:
		var p ScrollPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return errors.New("scroll: invalid payload")
		}
		// The navbar marks itself dirty only when the header tone flips.
		c.feed.Publish(p.Offset)
		return nil
	case MsgToggle:
		c.public.ToggleMobile()
	case MsgOverlay:
		c.public.TapOverlay()
	case MsgFollow:
		var p FollowPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil || !isLocalPath(p.Path) {
			return errors.New("follow: invalid path")
		}
		c.public.Follow(p.Path)
	default:
		return unsupported(m.Type)
	}
	c.dirty = true
	return nil
}

func (c *client) handleSide(ctx context.Context, m inbound) error {
	switch m.Type {
	case MsgToggle:
		c.side.ToggleUserMenu()
	case MsgOverlay:
		c.side.TapOverlay()
	case MsgSidebar:
		c.side.PressMenuButton()
		return nil
	case MsgProfile:
		c.side.OpenProfile()
	case MsgLogout:
		// The session is gone; the socket closes after the navigate frame.
		c.side.Logout(ctx)
		c.signedOut = true
		return nil
	default:
		return unsupported(m.Type)
	}
	c.dirty = true
	return nil
}

func unsupported(t MessageType) error {
	return fmt.Errorf("%w: %q", errUnsupported, t)
}

// render sends the component's current view as an HTML fragment.
func (c *client) render() {
	c.dirty = false
	var buf bytes.Buffer
	var target string
	var err error
	if c.public != nil {
		target = TargetPublicNavbar
		err = c.renderer.RenderPublicNavbar(&buf, c.public.View())
	} else {
		target = TargetSideNavbar
		err = c.renderer.RenderSideNavbar(&buf, c.side.View())
	}
	if err != nil {
		slog.Error("render live fragment", slog.String("target", target), slog.Any("error", err))
		c.send(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "render failed"}})
		return
	}
	c.send(WSMessage{Type: MsgRender, Payload: RenderPayload{Target: target, HTML: buf.String()}})
}

// closeWith sends a close frame; run's deferred cleanup closes the socket.
func (c *client) closeWith(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

// send writes m unless an earlier write failed.
func (c *client) send(m WSMessage) {
	if c.writeErr != nil {
		return
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.writeErr = c.conn.WriteJSON(m)
}
