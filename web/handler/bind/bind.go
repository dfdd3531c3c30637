package bind

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/sender"
	"github.com/h15s/gmtea/stats"
	"github.com/h15s/gmtea/web/api"
	"github.com/h15s/gmtea/web/gm"
)

// Sentinel errors for request binding
var (
	ErrInvalidDate    = errors.New("invalid date parameter")
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")

	ErrDateNotISO = errors.New("date must be YYYY-MM-DD")

	ErrPageNotNumeric  = errors.New("page must be numeric")
	ErrPageNotPositive = errors.New("page must be positive")

	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")
	ErrPerPageTooLarge    = fmt.Errorf("per_page must be between 1 and %d", gm.MaxPerPage)
)

// GetHistoryRequest binds HTTP request to HistoryRequest with defaults
func GetHistoryRequest(r *http.Request) (api.HistoryRequest, error) {
	req := api.HistoryRequest{
		Page:    gm.DefaultPage,
		PerPage: gm.DefaultPerPage,
	}

	query := r.URL.Query()

	if dateParam := query.Get("date"); dateParam != "" {
		if _, err := time.Parse(gm.DateLayout, dateParam); err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidDate, ErrDateNotISO)
		}
		req.Date = dateParam
	}

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := parsePageNumber(pageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		req.Page = page
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		perPage, err := parsePerPageLimit(perPageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		req.PerPage = perPage
	}

	return req, nil
}

// parsePageNumber validates that the page parameter is a positive integer
func parsePageNumber(pageParam string) (uint64, error) {
	page, err := strconv.ParseUint(pageParam, 10, 64)
	if err != nil {
		return 0, ErrPageNotNumeric
	}
	if page == 0 {
		return 0, ErrPageNotPositive
	}
	return page, nil
}

// parsePerPageLimit validates that the per_page parameter is within acceptable limits
func parsePerPageLimit(perPageParam string) (uint64, error) {
	perPage, err := strconv.ParseUint(perPageParam, 10, 64)
	if err != nil {
		return 0, ErrPerPageNotNumeric
	}
	if perPage == 0 {
		return 0, ErrPerPageNotPositive
	}
	if perPage > gm.MaxPerPage {
		return 0, ErrPerPageTooLarge
	}
	return perPage, nil
}

// GetStatsResponse binds a domain snapshot to the API format
func GetStatsResponse(s stats.Snapshot, net network.Network) api.Stats {
	return api.Stats{
		ID:          s.ID.String(),
		TotalTx:     s.Counts.TotalTx,
		UniqueUsers: s.Counts.UniqueUsers,
		DailyUsers:  s.Counts.DailyUsers,
		FromBlock:   strconv.FormatUint(s.FromBlock, 10),
		ToBlock:     strconv.FormatUint(s.ToBlock, 10),
		Endpoint:    s.Endpoint,
		ChainID:     strconv.FormatUint(s.ChainID, 10),
		Contract:    s.Contract.Hex(),
		ContractURL: net.AddressURL(s.Contract),
		TakenAt:     s.TakenAt.Format(time.RFC3339),
	}
}

// GetHistoryResponse binds domain snapshots to the API format
func GetHistoryResponse(snaps []stats.Snapshot, net network.Network) api.HistoryResponse {
	data := make([]api.Stats, len(snaps))
	for i, s := range snaps {
		data[i] = GetStatsResponse(s, net)
	}
	return api.HistoryResponse{Data: data}
}

// GetGMStatusResponse binds a send status to the API format
func GetGMStatusResponse(s sender.Status) api.GMStatus {
	return api.GMStatus{
		Stage:       string(s.Stage),
		Message:     s.Message,
		Display:     s.String(),
		TxHash:      s.TxHash,
		ExplorerURL: s.ExplorerURL,
	}
}
