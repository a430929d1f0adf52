// Package live binds a navbar component to an open browser page over a
// WebSocket. The page is the component's mount: the component is created
// and mounted when the socket opens and unmounted when it closes. Events
// from the page are applied by a single goroutine per socket, which also
// owns the socket writer.
package live

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/notify"
	"github.com/pinjam-app/pinjam/internal/store"
)

// Component names accepted in the ?component= query parameter.
const (
	ComponentPublic = "public"
	ComponentSide   = "side"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// Renderer renders the HTML fragment of each navbar.
type Renderer interface {
	RenderPublicNavbar(w io.Writer, v nav.PublicView) error
	RenderSideNavbar(w io.Writer, v nav.SideView) error
}

// Resolver identifies the visitor behind an upgrade request.
type Resolver interface {
	// Resolve returns a context carrying the visitor's session and the
	// signed-in user, or a nil user.
	Resolve(r *http.Request) (context.Context, *store.User)
	// Provider returns the session provider used for logout.
	Provider(user *store.User) nav.SessionProvider
}

// UnreadCounter supplies the initial notification badge count.
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Server is the /live endpoint.
type Server struct {
	renderer Renderer
	resolver Resolver
	hub      *notify.Hub
	unread   UnreadCounter
	orgName  string
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer returns a live endpoint. hub and unread may be nil, in which
// case side navbars show no badge updates.
func NewServer(renderer Renderer, resolver Resolver, hub *notify.Hub, unread UnreadCounter, orgName string) *Server {
	return &Server{
		renderer: renderer,
		resolver: resolver,
		hub:      hub,
		unread:   unread,
		orgName:  orgName,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		clients:  make(map[*client]struct{}),
		quit:     make(chan struct{}),
	}
}

// ServeHTTP upgrades the request and runs the component loop until the
// socket closes. The loop runs on the request goroutine so the session
// context stays valid for logout.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")
	path := pagePath(r.URL.Query().Get("path"))

	ctx, user := s.resolver.Resolve(r)
	switch component {
	case ComponentPublic:
	case ComponentSide:
		if user == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	default:
		http.Error(w, "unknown component", http.StatusBadRequest)
		return
	}

	select {
	case <-s.quit:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "live upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	c := newClient(conn, component, s.renderer)
	if component == ComponentPublic {
		c.public = nav.NewPublicNavbar(path, c)
	} else {
		sessions := s.resolver.Provider(user)
		c.side = nav.NewSideNavbar(nav.SideProps{
			Session:       sessions.Current(),
			ToggleSidebar: c.toggleSidebar,
			NotifCount:    s.initialCount(ctx, user),
			OrgName:       s.orgName,
		}, sessions, c)
		if s.hub != nil {
			c.notifications, c.cancelNotifications = s.hub.Subscribe(user.ID)
		}
	}

	if !s.add(c) {
		if c.cancelNotifications != nil {
			c.cancelNotifications()
		}
		return
	}
	defer s.remove(c)

	log := slog.With(slog.String("component", component), slog.String("path", path))
	if user != nil {
		log = log.With(slog.String("user_id", user.ID))
	}
	log.DebugContext(ctx, "live session opened")
	c.run(ctx, s.quit)
	log.DebugContext(ctx, "live session closed")
}

// Shutdown ends every live session and waits for their loops to exit. New
// upgrades are refused afterwards.
func (s *Server) Shutdown() {
	s.quitOnce.Do(func() {
		s.mu.Lock()
		close(s.quit)
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// Active returns the number of open live sessions.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) add(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) initialCount(ctx context.Context, user *store.User) int {
	if s.unread == nil {
		return 0
	}
	n, err := s.unread.CountUnread(ctx, user.ID)
	if err != nil {
		slog.WarnContext(ctx, "count unread notifications", slog.Any("error", err))
		return 0
	}
	return n
}

// pagePath normalizes the page path reported by the browser.
func pagePath(p string) string {
	if !isLocalPath(p) {
		return nav.PathHome
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
