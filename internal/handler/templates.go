package handler

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"

	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/store"
	"github.com/pinjam-app/pinjam/web"
)

// pageCache maps a render key (e.g. "dashboard.html", "admin/loans.html") to
// a compiled template set containing base.html + partials + that one page
// file. Each page gets its own set so {{define "content"}} blocks don't
// collide.
var (
	pageCache    map[string]*template.Template
	fragmentTmpl *template.Template
)

var templateFuncs = template.FuncMap{
	"humanTime": func(t time.Time) string { return humanize.Time(t) },
	"humanInt":  func(n int) string { return humanize.Comma(int64(n)) },
	"dueIn": func(l *store.LoanView) string {
		if !l.DueAt.Valid {
			return ""
		}
		return humanize.Time(l.DueAt.Time)
	},
	"overdue": func(l *store.LoanView) bool { return l.Overdue(time.Now()) },
	"statusLabel": func(status string) string {
		switch status {
		case store.LoanPending:
			return "Menunggu"
		case store.LoanActive:
			return "Dipinjam"
		case store.LoanReturned:
			return "Dikembalikan"
		case store.LoanRejected:
			return "Ditolak"
		}
		return status
	},
}

func newTemplate() *template.Template {
	return template.New("").Funcs(sprig.HtmlFuncMap()).Funcs(templateFuncs)
}

func init() {
	partials, err := fs.Glob(web.TemplateFS, "templates/partials/*.html")
	if err != nil {
		panic("glob partials: " + err.Error())
	}

	// Standalone set for fragment rendering (partials only).
	fragmentTmpl = template.Must(newTemplate().ParseFS(web.TemplateFS, partials...))

	baseCount := map[string]int{}
	_ = fs.WalkDir(web.TemplateFS, "templates/pages", func(p string, d fs.DirEntry, e error) error {
		if e != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return e
		}
		baseCount[filepath.Base(p)]++
		return nil
	})

	pageCache = make(map[string]*template.Template)
	err = fs.WalkDir(web.TemplateFS, "templates/pages", func(p string, d fs.DirEntry, e error) error {
		if e != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return e
		}

		files := make([]string, 0, 2+len(partials))
		files = append(files, "templates/base.html")
		files = append(files, partials...)
		files = append(files, p)

		t, err := newTemplate().ParseFS(web.TemplateFS, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}

		rel, _ := strings.CutPrefix(p, "templates/pages/")
		pageCache[rel] = t
		if base := filepath.Base(p); baseCount[base] == 1 {
			pageCache[base] = t
		}
		return nil
	})
	if err != nil {
		panic("build page cache: " + err.Error())
	}
}

// Flash represents a one-time notification message shown to the user.
type Flash struct {
	Type    string // "success", "error", "info"
	Message string
}

// isHTMX returns true when the request was sent by HTMX.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render executes a full-page template (base layout + named page).
func render(w http.ResponseWriter, tmpl string, data any) {
	renderStatus(w, http.StatusOK, tmpl, data)
}

// renderStatus is render with an explicit status code.
func renderStatus(w http.ResponseWriter, status int, tmpl string, data any) {
	t, ok := pageCache[tmpl]
	if !ok {
		http.Error(w, "template not found: "+tmpl, http.StatusInternalServerError)
		return
	}
	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		slog.Error("render page", slog.String("template", tmpl), slog.Any("error", err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

// renderPageFragment executes a named template from a specific page's set.
func renderPageFragment(w http.ResponseWriter, page, tmpl string, data any) {
	renderPageFragmentStatus(w, http.StatusOK, page, tmpl, data)
}

func renderPageFragmentStatus(w http.ResponseWriter, status int, page, tmpl string, data any) {
	t, ok := pageCache[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, tmpl, data); err != nil {
		slog.Error("render page fragment", slog.String("template", page+"#"+tmpl), slog.Any("error", err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

// Fragments renders the navbar partials for the live channel.
type Fragments struct{}

func (Fragments) RenderPublicNavbar(w io.Writer, v nav.PublicView) error {
	return fragmentTmpl.ExecuteTemplate(w, "public_navbar", v)
}

func (Fragments) RenderSideNavbar(w io.Writer, v nav.SideView) error {
	return fragmentTmpl.ExecuteTemplate(w, "side_navbar", v)
}
