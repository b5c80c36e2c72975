package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fwojciec/differ"
	"github.com/fwojciec/differ/notify"
)

// comparison reads the compare, base, head and pr query parameters. A
// request naming none of them gets the server's default comparison, and a
// pull request without a usable number falls back to it too.
func (s *Server) comparison(q url.Values) differ.ComparisonSpec {
	mode, base, head, pr := q.Get("compare"), q.Get("base"), q.Get("head"), q.Get("pr")
	if mode == "" && base == "" && head == "" && pr == "" {
		return s.DefaultCompare
	}
	switch mode {
	case differ.ModeWorking:
		return differ.Working{}
	case differ.ModePullRequest:
		if n, err := strconv.Atoi(pr); err == nil && n > 0 {
			return differ.PullRequest{Number: n}
		}
		return s.DefaultCompare
	}
	if mode != "" {
		if def, ok := s.DefaultCompare.(differ.Range); ok {
			if !q.Has("base") {
				base = def.Base
			}
			if !q.Has("head") {
				head = def.Head
			}
		}
	}
	return differ.ResolveComparison(s.Inspector, s.RepoRoot, differ.CompareRequest{
		Mode: mode,
		Base: base,
		Head: head,
	})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap, err := s.DiffService.GetDiff(r.Context(), differ.DiffRequest{
		RepoRoot:   s.RepoRoot,
		Theme:      s.theme(r),
		Comparison: s.comparison(q),
		AuthToken:  s.token(r),
	})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleDiffFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		http.Error(w, "Missing path", http.StatusBadRequest)
		return
	}
	file, err := s.DiffService.GetFileDiff(r.Context(), differ.FileDiffRequest{
		RepoRoot:    s.RepoRoot,
		Path:        path,
		Theme:       s.theme(r),
		FullContext: q.Get("full") == "1",
		Comparison:  s.comparison(q),
		AuthToken:   s.token(r),
	})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, file)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Default string         `json:"default"`
		Themes  []differ.Theme `json:"themes"`
	}{differ.ResolveTheme(s.DefaultTheme).ID, differ.Themes})
}

// handleWatch streams change events as server-sent events until the client
// disconnects, the server closes, or the subscription is dropped.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for ev := range s.Events.Subscribe(r.Context()) {
		if _, err := fmt.Fprint(w, formatEvent(ev)); err != nil {
			return
		}
		flusher.Flush()
	}
}

func formatEvent(ev notify.Event) string {
	switch ev.Kind {
	case notify.Ready:
		return "event: ready\ndata: ok\n\n"
	case notify.KeepAlive:
		return ": ping\n\n"
	default:
		return "event: diff\ndata: " + strconv.FormatInt(ev.Time.UnixMilli(), 10) + "\n\n"
	}
}
