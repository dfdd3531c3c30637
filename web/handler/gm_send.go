package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/h15s/gmtea/pkg/httpkit"
	"github.com/h15s/gmtea/sender"
	"github.com/h15s/gmtea/web/api"
	"github.com/h15s/gmtea/web/handler/bind"
)

const (
	PostGMRoute     = "/api/gm"
	PostGMFormRoute = "/gm"
)

// GMSender sends one gm() transaction
type GMSender interface {
	HasWallet() bool
	Send(ctx context.Context, report func(sender.Status)) sender.Status
}

type GMSend struct {
	ctx      context.Context
	sender   GMSender
	board    *StatusBoard
	inFlight sync.WaitGroup
}

// NewGMSend creates the send handlers. Sends started from the HTML form
// outlive their request and run under ctx.
func NewGMSend(ctx context.Context, s GMSender, board *StatusBoard) *GMSend {
	return &GMSend{ctx: ctx, sender: s, board: board}
}

func (h *GMSend) AddRoutes(r chi.Router) {
	r.Method(http.MethodPost, PostGMRoute, httpkit.HandlerFunc(h.PostGM))
	r.Method(http.MethodPost, PostGMFormRoute, httpkit.HandlerFunc(h.PostGMForm))
}

// PostGM sends and waits for the final status.
// 503 without a wallet, 502 when the send itself failed.
func (h *GMSend) PostGM(_ http.ResponseWriter, r *http.Request) http.HandlerFunc {
	status := h.sender.Send(r.Context(), h.board.Set)
	resp := bind.GetGMStatusResponse(status)

	switch status.Stage {
	case sender.StageNoWallet:
		httpkit.SetError(r.Context(), api.ServiceUnavailable(sender.ErrNoWallet, status.Message))
		return httpkit.JSONWithStatus(http.StatusServiceUnavailable, resp)
	case sender.StageFailed:
		httpkit.SetError(r.Context(), api.BadGateway(errors.New(status.Message), status.Message))
		return httpkit.JSONWithStatus(http.StatusBadGateway, resp)
	default:
		return httpkit.JSON(resp)
	}
}

// PostGMForm starts a send in the background and sends the browser back to
// the page, which follows progress over the live feed.
func (h *GMSend) PostGMForm(_ http.ResponseWriter, _ *http.Request) http.HandlerFunc {
	h.inFlight.Add(1)
	go func() {
		defer h.inFlight.Done()
		h.sender.Send(h.ctx, h.board.Set)
	}()
	return httpkit.Redirect("/")
}

// Wait blocks until background sends are done
func (h *GMSend) Wait() {
	h.inFlight.Wait()
}
