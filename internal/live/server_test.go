package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/notify"
	"github.com/pinjam-app/pinjam/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type textRenderer struct{}

func (textRenderer) RenderPublicNavbar(w io.Writer, v nav.PublicView) error {
	_, err := fmt.Fprintf(w, "tone=%s mobile=%t", v.Header, v.MobileOpen)
	return err
}

func (textRenderer) RenderSideNavbar(w io.Writer, v nav.SideView) error {
	_, err := fmt.Fprintf(w, "badge=%s menu=%t", v.Badge.Text, v.UserMenuOpen)
	return err
}

// cookieResolver signs in requests that carry the "session=ok" cookie.
type cookieResolver struct {
	user *store.User

	mu      sync.Mutex
	logouts int
}

func (r *cookieResolver) Resolve(req *http.Request) (context.Context, *store.User) {
	if c, err := req.Cookie("session"); err == nil && c.Value == "ok" {
		return req.Context(), r.user
	}
	return req.Context(), nil
}

func (r *cookieResolver) Provider(user *store.User) nav.SessionProvider {
	return &recordingSessions{resolver: r, user: user}
}

func (r *cookieResolver) Logouts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logouts
}

type recordingSessions struct {
	resolver *cookieResolver
	user     *store.User
}

func (s *recordingSessions) Current() *nav.Session {
	return &nav.Session{DisplayName: s.user.DisplayName, Role: s.user.Role, Class: s.user.ClassTag}
}

func (s *recordingSessions) Logout(context.Context) {
	s.resolver.mu.Lock()
	s.resolver.logouts++
	s.resolver.mu.Unlock()
}

type fixedCounter int

func (n fixedCounter) CountUnread(context.Context, string) (int, error) { return int(n), nil }

type liveEnv struct {
	srv      *Server
	ts       *httptest.Server
	hub      *notify.Hub
	resolver *cookieResolver
}

func newLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	res := &cookieResolver{user: &store.User{ID: "u-1", DisplayName: "Siti", Role: store.RoleUser, ClassTag: "XI IPA 2"}}
	hub := notify.NewHub()
	srv := NewServer(textRenderer{}, res, hub, fixedCounter(2), "SMA Negeri 1")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &liveEnv{srv: srv, ts: ts, hub: hub, resolver: res}
}

func (e *liveEnv) url(query string) string {
	return "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/live?" + query
}

func (e *liveEnv) dial(t *testing.T, query string, signedIn bool) *websocket.Conn {
	t.Helper()
	hdr := http.Header{}
	if signedIn {
		hdr.Set("Cookie", "session=ok")
	}
	conn, _, err := websocket.DefaultDialer.Dial(e.url(query), hdr)
	require.NoError(t, err)
	return conn
}

func (e *liveEnv) onlyClient(t *testing.T) *client {
	t.Helper()
	require.Eventually(t, func() bool { return e.srv.Active() == 1 }, 2*time.Second, 10*time.Millisecond)
	e.srv.mu.Lock()
	defer e.srv.mu.Unlock()
	for c := range e.srv.clients {
		return c
	}
	return nil
}

func (e *liveEnv) waitClosed(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return e.srv.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func send(t *testing.T, conn *websocket.Conn, typ MessageType, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(WSMessage{Type: typ, Payload: payload}))
}

func receive(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m inbound
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func expectRender(t *testing.T, conn *websocket.Conn, target, html string) {
	t.Helper()
	m := receive(t, conn)
	require.Equal(t, MsgRender, m.Type, "payload: %s", m.Payload)
	var p RenderPayload
	require.NoError(t, json.Unmarshal(m.Payload, &p))
	assert.Equal(t, target, p.Target)
	assert.Equal(t, html, p.HTML)
}

func expectNavigate(t *testing.T, conn *websocket.Conn, path string) {
	t.Helper()
	m := receive(t, conn)
	require.Equal(t, MsgNavigate, m.Type, "payload: %s", m.Payload)
	var p NavigatePayload
	require.NoError(t, json.Unmarshal(m.Payload, &p))
	assert.Equal(t, path, p.Path)
}

func TestPublicNavbar_Lifecycle(t *testing.T) {
	env := newLiveEnv(t)

	conn := env.dial(t, "component=public&path=/katalog", false)
	expectRender(t, conn, TargetPublicNavbar, "tone=transparent mobile=false")

	c := env.onlyClient(t)
	assert.Equal(t, 1, c.feed.Subscribers(), "mounted navbar subscribes to scroll")

	// A scroll that keeps the tone sends nothing, so the next frame is the
	// opaque render.
	send(t, conn, MsgScroll, ScrollPayload{Offset: 5})
	send(t, conn, MsgScroll, ScrollPayload{Offset: 50})
	expectRender(t, conn, TargetPublicNavbar, "tone=opaque mobile=false")

	send(t, conn, MsgScroll, ScrollPayload{Offset: 80})
	send(t, conn, MsgToggle, nil)
	expectRender(t, conn, TargetPublicNavbar, "tone=opaque mobile=true")

	send(t, conn, MsgFollow, FollowPayload{Path: "/tentang"})
	expectNavigate(t, conn, "/tentang")
	expectRender(t, conn, TargetPublicNavbar, "tone=opaque mobile=false")

	send(t, conn, MsgToggle, nil)
	expectRender(t, conn, TargetPublicNavbar, "tone=opaque mobile=true")
	send(t, conn, MsgOverlay, nil)
	expectRender(t, conn, TargetPublicNavbar, "tone=opaque mobile=false")

	require.NoError(t, conn.Close())
	env.waitClosed(t)
	assert.Equal(t, 0, c.feed.Subscribers(), "unmount releases the scroll subscription")
	assert.False(t, c.public.Mounted())
}

func TestPublicNavbar_RejectsBadInput(t *testing.T) {
	env := newLiveEnv(t)

	conn := env.dial(t, "component=public&path=/", false)
	defer conn.Close()
	expectRender(t, conn, TargetPublicNavbar, "tone=transparent mobile=false")

	for _, frame := range []WSMessage{
		{Type: MsgLogout},
		{Type: "bogus"},
		{Type: MsgFollow, Payload: FollowPayload{Path: "https://evil.example"}},
	} {
		send(t, conn, frame.Type, frame.Payload)
		m := receive(t, conn)
		assert.Equal(t, MsgError, m.Type, "frame %q", frame.Type)
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, MsgError, receive(t, conn).Type)

	// The session keeps working after errors.
	send(t, conn, MsgToggle, nil)
	expectRender(t, conn, TargetPublicNavbar, "tone=transparent mobile=true")

	require.NoError(t, conn.Close())
	env.waitClosed(t)
}

func TestSideNavbar_RequiresSession(t *testing.T) {
	env := newLiveEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.url("component=side&path=/dashboard"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(env.url("component=footer"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSideNavbar_BadgeMenuAndLogout(t *testing.T) {
	env := newLiveEnv(t)

	conn := env.dial(t, "component=side&path=/dashboard", true)
	expectRender(t, conn, TargetSideNavbar, "badge=2 menu=false")
	assert.Equal(t, 1, env.hub.Subscribers("u-1"))

	env.hub.Publish("u-1", 12)
	expectRender(t, conn, TargetSideNavbar, "badge=9+ menu=false")

	send(t, conn, MsgToggle, nil)
	expectRender(t, conn, TargetSideNavbar, "badge=9+ menu=true")

	send(t, conn, MsgSidebar, nil)
	assert.Equal(t, MsgSidebar, receive(t, conn).Type)

	send(t, conn, MsgProfile, nil)
	expectNavigate(t, conn, "/profile")
	expectRender(t, conn, TargetSideNavbar, "badge=9+ menu=false")

	// Logging out navigates to the login page, then the server closes the
	// socket with a policy violation so the page does not reconnect.
	send(t, conn, MsgLogout, nil)
	expectNavigate(t, conn, "/login")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Equal(t, 1, env.resolver.Logouts())
	_ = conn.Close()

	env.waitClosed(t)
	assert.Equal(t, 0, env.hub.Subscribers("u-1"), "unmount cancels the badge subscription")
}

func TestServer_Shutdown(t *testing.T) {
	env := newLiveEnv(t)

	conn := env.dial(t, "component=public&path=/", false)
	defer conn.Close()
	expectRender(t, conn, TargetPublicNavbar, "tone=transparent mobile=false")
	env.onlyClient(t)

	env.srv.Shutdown()
	assert.Equal(t, 0, env.srv.Active())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	_, resp, err := websocket.DefaultDialer.Dial(env.url("component=public&path=/"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPagePath(t *testing.T) {
	tests := map[string]string{
		"":                  "/",
		"/katalog":          "/katalog",
		"/katalog?q=fisika": "/katalog",
		"/tentang#visi":     "/tentang",
		"//evil.example":    "/",
		"https://x.test/":   "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, pagePath(in), "pagePath(%q)", in)
	}
}
