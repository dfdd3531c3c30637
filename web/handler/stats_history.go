package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/h15s/gmtea/pkg/httpkit"
	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/web/api"
	"github.com/h15s/gmtea/web/gm"
	"github.com/h15s/gmtea/web/handler/bind"
)

const GetHistoryRoute = "/api/stats/history"

// Sentinel errors
var ErrQueryFailed = errors.New("failed to query snapshots")

type StatsHistory struct {
	finder   gm.SnapshotsFinder
	net      network.Network
	location *time.Location
}

// NewStatsHistory lists snapshots; ?date= is read in loc
func NewStatsHistory(finder gm.SnapshotsFinder, net network.Network, loc *time.Location) *StatsHistory {
	return &StatsHistory{finder: finder, net: net, location: loc}
}

func (h *StatsHistory) AddRoutes(r chi.Router) {
	r.Method(http.MethodGet, GetHistoryRoute, httpkit.HandlerFunc(h.GetHistory))
}

func (h *StatsHistory) GetHistory(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetHistoryRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	criteria, err := gm.NewSnapshotsCriteria(req.Date, req.Page, req.PerPage, h.location)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	page, err := h.finder.FindSnapshots(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	if linkHeader := buildPaginationLinks(page, r.URL); linkHeader != "" {
		w.Header().Set("Link", linkHeader)
	}

	return httpkit.JSON(bind.GetHistoryResponse(page.Snapshots, h.net))
}

// buildPaginationLinks creates GitHub-style Link header for pagination navigation
func buildPaginationLinks(page *gm.SnapshotsPage, baseURL *url.URL) string {
	var links []string

	// keep the other query params (like the date filter)
	u := *baseURL
	query := u.Query()

	if page.HasPrevious() {
		query.Set("page", fmt.Sprintf("%d", page.Number-1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, u.String()))
	}

	// only when we know there are more pages
	if page.HasNext() {
		query.Set("page", fmt.Sprintf("%d", page.Number+1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, u.String()))
	}

	return strings.Join(links, ", ")
}
