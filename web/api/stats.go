package api

// HistoryRequest represents the query parameters for GET /api/stats/history
type HistoryRequest struct {
	Date    string `query:"date"`     // Optional day filter in YYYY-MM-DD format
	Page    uint64 `query:"page"`     // Page number for pagination (default: 1)
	PerPage uint64 `query:"per_page"` // Number of items per page (default: 50, max: 100)
}

// Stats is one snapshot of the counters
type Stats struct {
	ID          string `json:"id"`
	TotalTx     int    `json:"totalTx"`
	UniqueUsers int    `json:"uniqueUsers"`
	DailyUsers  int    `json:"dailyUsers"`
	FromBlock   string `json:"fromBlock"`
	ToBlock     string `json:"toBlock"`
	Endpoint    string `json:"endpoint"`
	ChainID     string `json:"chainId"`
	Contract    string `json:"contract"`
	ContractURL string `json:"contractUrl"`
	TakenAt     string `json:"takenAt"`
}

// HistoryResponse represents the API response format for GET /api/stats/history
type HistoryResponse struct {
	Data []Stats `json:"data"`
}

// GMStatus is the outcome of POST /api/gm
type GMStatus struct {
	Stage       string `json:"stage"`
	Message     string `json:"message"`
	Display     string `json:"display"`
	TxHash      string `json:"txHash,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}
