package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/pipeline"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/session"
)

// createRequest is the body of POST /api/views.
type createRequest struct {
	Position  string `json:"position"`
	Groups    int    `json:"groups,omitempty"` // 0 means automatic
	Highlight []int  `json:"highlight,omitempty"`
}

// viewResponse describes a view to API clients.
type viewResponse struct {
	*session.View
	URL string `json:"url"`
}

func (s *Server) createView(ctx context.Context, req createRequest) (*session.View, error) {
	if err := errors.ValidatePosition(req.Position); err != nil {
		return nil, err
	}
	if req.Groups < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "groups must not be negative")
	}
	if req.Groups > 0 {
		lo, hi := s.groupBounds()
		if err := errors.ValidateGroupCount(req.Groups, lo, hi); err != nil {
			return nil, err
		}
	}
	if _, err := s.cfg.Sources(req.Position); err != nil {
		return nil, err
	}
	greq := grouping.Auto
	if req.Groups > 0 {
		greq = grouping.Manual(req.Groups)
	}
	v := session.New(req.Position, greq, req.Highlight, s.cfg.ViewTTL)
	if err := s.store.Set(ctx, v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "store view")
	}
	s.logger.Debug("view created", "id", v.ID, "position", v.Position, "groups", greq)
	return v, nil
}

// groupBounds is the manual group range the live panel allows.
func (s *Server) groupBounds() (lo, hi int) {
	return grouping.NewPanel(s.cfg.Chart.GroupMin, s.cfg.Chart.GroupMax, 0, nil).Bounds()
}

// loadView fetches the view named in the URL.
func (s *Server) loadView(r *http.Request) (*session.View, error) {
	id := chi.URLParam(r, "id")
	if !session.ValidID(id) {
		return nil, errors.New(errors.ErrCodeViewNotFound, "no view %q", id)
	}
	v, err := s.store.Get(r.Context(), id)
	switch {
	case err == session.ErrExpired:
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %s expired", id)
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load view")
	case v == nil:
		return nil, errors.New(errors.ErrCodeViewNotFound, "no view %q", id)
	}
	return v, nil
}

func viewURL(id string) string { return "/views/" + id + "/" }

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	v, err := s.createView(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", viewURL(v.ID))
	writeJSON(w, http.StatusCreated, viewResponse{View: v, URL: viewURL(v.ID)})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{View: v, URL: viewURL(v.ID)})
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), v.ID); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "delete view"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenPosition creates a view from query parameters and redirects to
// its page, so a position can be linked directly:
// /positions/guards?k=5&highlight=12,40
func (s *Server) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	req, err := parseOpenQuery(chi.URLParam(r, "position"), r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := s.createView(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, viewURL(v.ID), http.StatusSeeOther)
}

// handleScene renders the stored state of a view as a static artifact.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	src, err := s.cfg.Sources(v.Position)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := pipeline.Options{
		Position:  v.Position,
		Groups:    v.Groups,
		Highlight: v.Highlight,
		Select:    v.Selected,
		Transform: &v.Transform,
		Formats:   []string{format},
		Theme:     s.cfg.Theme.Name,
		Source:    src,
		Chart:     s.cfg.Chart,
		Logger:    s.logger,
	}
	if width, height, ok := parseSize(r.URL.Query()); ok {
		opts.Width, opts.Height = width, height
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	snap, err := s.runner.Load(ctx, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	scene, err := s.runner.Compose(opts, snap)
	if err != nil {
		s.writeError(w, err)
		return
	}
	artifacts, err := pipeline.Render(ctx, scene, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(artifacts[format])
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG, pipeline.FormatGraphviz:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatJSON:
		return "application/json"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// closeView saves the final state of a view and reports its lifetime.
func (s *Server) closeView(ctx context.Context, v *session.View, opened time.Time) {
	v.Touch(time.Now(), s.cfg.ViewTTL)
	if err := s.store.Set(ctx, v); err != nil {
		s.logger.Warn("saving view failed", "id", v.ID, "err", err)
	}
	observability.View().OnViewClose(ctx, v.ID, time.Since(opened))
}
