// Package handler exposes the presenter's HTTP surface: the universe
// and scene views consumed by the rendering engine, plus status,
// stats and routing endpoints.
package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cartography/internal/domain"
	"cartography/internal/service"
	"cartography/internal/universe"
)

// Handler serves the pipeline's current session
type Handler struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
}

// New creates a handler
func New(pipeline *service.Pipeline, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

// Routes registers the API routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/status", h.GetStatus)
	r.Get("/api/universe", h.GetUniverse)
	r.Get("/api/scene", h.GetScene)
	r.Get("/api/datasets", h.GetDatasets)
	r.Get("/api/path", h.GetPath)
	r.Get("/api/stats", h.GetStats)
	r.Post("/api/reload", h.Reload)
}

// GetStatus reports the pipeline state
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.pipeline.Status())
}

// GetUniverse returns the current universe graph
func (h *Handler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, session.Universe)
}

// GetScene returns the renderable scene for the engine
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, session.Scene)
}

// GetDatasets returns summaries of the loaded datasets, including the
// files skipped during the load pass
func (h *Handler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"datasets": session.Datasets,
		"skipped":  session.Skipped,
	})
}

// GetPath computes a weighted route between two nodes. from/to accept
// either node IDs or bare tag names.
func (h *Handler) GetPath(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w)
	if !ok {
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		h.respondError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	fromID := resolveNodeID(session.Universe, from)
	toID := resolveNodeID(session.Universe, to)

	route, found := universe.FindRoute(session.Universe, fromID, toID)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"found": found,
		"route": route,
	})
}

// GetStats returns per-domain node and edge counts
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, statsFor(session.Universe))
}

// Reload forces a pipeline rebuild
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	h.pipeline.RequestRebuild()
	h.respondJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild requested"})
}

// session loads the live session, answering 503 while the first build
// is still in flight
func (h *Handler) session(w http.ResponseWriter) (*service.Session, bool) {
	session := h.pipeline.Current()
	if session == nil {
		h.respondJSON(w, http.StatusServiceUnavailable, h.pipeline.Status())
		return nil, false
	}
	return session, true
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

// resolveNodeID maps a bare tag name to its node ID when no node with
// the literal ID exists
func resolveNodeID(u *domain.Universe, ref string) string {
	if u.HasNode(ref) {
		return ref
	}
	if tagID := domain.TagNodeID(ref); u.HasNode(tagID) {
		return tagID
	}
	return ref
}

// SiteStats summarizes one domain's share of the universe
type SiteStats struct {
	Site  string `json:"site"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// Stats is the response shape of GET /api/stats
type Stats struct {
	Nodes     int         `json:"nodes"`
	Edges     int         `json:"edges"`
	Sites     []SiteStats `json:"sites"`
	MaxWeight int         `json:"max_weight"`
}

func statsFor(u *domain.Universe) Stats {
	perSite := make(map[string]*SiteStats)
	for i := range u.Nodes {
		node := &u.Nodes[i]
		s, ok := perSite[node.Site]
		if !ok {
			s = &SiteStats{Site: node.Site}
			perSite[node.Site] = s
		}
		s.Nodes++
	}

	maxWeight := 0
	for i := range u.Edges {
		edge := &u.Edges[i]
		if edge.Weight > maxWeight {
			maxWeight = edge.Weight
		}
		if from, ok := u.NodeByID(edge.FromID); ok {
			if s, ok := perSite[from.Site]; ok {
				s.Edges++
			}
		}
	}

	stats := Stats{
		Nodes:     len(u.Nodes),
		Edges:     len(u.Edges),
		MaxWeight: maxWeight,
	}
	for _, s := range perSite {
		stats.Sites = append(stats.Sites, *s)
	}
	sort.Slice(stats.Sites, func(i, j int) bool { return stats.Sites[i].Site < stats.Sites[j].Site })
	return stats
}
