package tracker

import (
	"context"

	"github.com/h15s/gmtea/pkg/evmrpc"
)

// PoolConnector runs endpoint selection before every sync
type PoolConnector struct {
	Pool *evmrpc.Pool
}

// Connect returns the first endpoint that answers the liveness probe
func (c PoolConnector) Connect(ctx context.Context) (Chain, string, error) {
	conn, err := c.Pool.Connect(ctx)
	if err != nil {
		return nil, "", err
	}
	return conn, conn.Endpoint.String(), nil
}
