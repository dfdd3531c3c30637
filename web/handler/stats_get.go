package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/h15s/gmtea/pkg/httpkit"
	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/web/api"
	"github.com/h15s/gmtea/web/gm"
	"github.com/h15s/gmtea/web/handler/bind"
)

const GetStatsRoute = "/api/stats"

// Sentinel errors
var ErrLatestFailed = errors.New("failed to load latest snapshot")

type StatsGet struct {
	latest gm.LatestFinder
	net    network.Network
}

func NewStatsGet(latest gm.LatestFinder, net network.Network) *StatsGet {
	return &StatsGet{latest: latest, net: net}
}

func (h *StatsGet) AddRoutes(r chi.Router) {
	r.Method(http.MethodGet, GetStatsRoute, httpkit.HandlerFunc(h.GetStats))
}

// GetStats answers with the latest snapshot, 503 until the first poll completes
func (h *StatsGet) GetStats(_ http.ResponseWriter, r *http.Request) http.HandlerFunc {
	snap, err := h.latest.Latest(r.Context())
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrLatestFailed, err)))
	}
	return httpkit.JSON(bind.GetStatsResponse(snap, h.net))
}
