package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/store"
)

type navHandler struct {
	notifications *store.NotificationStore
	orgName       string
}

// Public handles GET /api/v1/nav/public?path=&offset=&mobile=.
//
// @Summary      Public navbar state
// @Description  Derives the public navbar for a page path, scroll offset and mobile menu flag.
// @Tags         Navigation
// @Produce      json
// @Param        path    query     string   false  "Page path"  default(/)
// @Param        offset  query     number   false  "Scroll offset in pixels"
// @Param        mobile  query     boolean  false  "Mobile menu open"
// @Success      200     {object}  nav.PublicView
// @Failure      400     {object}  ErrorResponse
// @Router       /nav/public [get]
func (h *navHandler) Public(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	path := q.Get("path")
	if path == "" {
		path = nav.PathHome
	}
	if !strings.HasPrefix(path, "/") {
		writeError(w, http.StatusBadRequest, "path must start with /", "invalid_path")
		return
	}

	var offset float64
	if s := q.Get("offset"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be a number", "invalid_offset")
			return
		}
		offset = v
	}

	var mobile bool
	if s := q.Get("mobile"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "mobile must be a boolean", "invalid_mobile")
			return
		}
		mobile = v
	}

	writeJSON(w, http.StatusOK, nav.DerivePublic(path, nav.IsScrolled(offset), mobile))
}

// Side handles GET /api/v1/nav/side for the signed-in user.
//
// @Summary      Side navbar state
// @Description  Derives the side navbar for the session's user, including the unread badge.
// @Tags         Navigation
// @Produce      json
// @Success      200  {object}  nav.SideView
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     SessionCookie
// @Router       /nav/side [get]
func (h *navHandler) Side(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	count, err := h.notifications.CountUnread(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "count unread notifications", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error", "internal")
		return
	}
	writeJSON(w, http.StatusOK, nav.DeriveSide(auth.NavSession(user), count, false, h.orgName))
}
