package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/h15s/gmtea/pkg/httpkit"
	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/web/api"
	"github.com/h15s/gmtea/web/gm"
	"github.com/h15s/gmtea/web/handler/bind"
	"github.com/h15s/gmtea/web/live"
)

const PageRoute = "/"

//go:embed templates/index.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// PageData feeds templates/index.html
type PageData struct {
	Title       string
	Network     network.Network
	ContractURL string
	Stats       *api.Stats
	Status      *api.GMStatus
	HasWallet   bool
	Wallet      string
	FeedPath    string
	FormAction  string
}

// WalletInfo is the part of the sender the page shows
type WalletInfo interface {
	HasWallet() bool
	Address() common.Address
}

type Page struct {
	latest gm.LatestFinder
	board  *StatusBoard
	wallet WalletInfo
	net    network.Network
}

func NewPage(latest gm.LatestFinder, board *StatusBoard, wallet WalletInfo, net network.Network) *Page {
	return &Page{latest: latest, board: board, wallet: wallet, net: net}
}

func (h *Page) AddRoutes(r chi.Router) {
	r.Method(http.MethodGet, PageRoute, httpkit.HandlerFunc(h.GetPage))
}

// GetPage renders the counters with whatever is known right now.
// Missing stats are shown as placeholders, not as an error.
func (h *Page) GetPage(_ http.ResponseWriter, r *http.Request) http.HandlerFunc {
	data := PageData{
		Title:       "gm tea sepolia",
		Network:     h.net,
		ContractURL: h.net.AddressURL(h.net.Contract),
		HasWallet:   h.wallet.HasWallet(),
		Wallet:      h.wallet.Address().Hex(),
		FeedPath:    live.Route,
		FormAction:  PostGMFormRoute,
	}

	snap, err := h.latest.Latest(r.Context())
	switch {
	case err == nil:
		s := bind.GetStatsResponse(snap, h.net)
		data.Stats = &s
	case !errors.Is(err, gm.ErrNoSnapshot):
		return httpkit.JsonError(api.Wrap(err))
	}

	if status, ok := h.board.Last(); ok {
		s := bind.GetGMStatusResponse(status)
		data.Status = &s
	}

	return httpkit.HTML(pageTemplate, data)
}
