package vpn

import (
	"context"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/internal/cache"
	"github.com/wisphive/fleetd/pkg/plugin"
)

// ClientInvalidator drops the cached client list of a VPN server when
// its membership changes.
type ClientInvalidator struct {
	store  *VpnStore
	cache  plugin.Cache
	logger *zap.Logger
}

// NewClientInvalidator creates an invalidator over the given store and cache.
func NewClientInvalidator(store *VpnStore, c plugin.Cache, logger *zap.Logger) *ClientInvalidator {
	return &ClientInvalidator{store: store, cache: c, logger: logger}
}

// InvalidateClients removes the cached client list for the given VPN.
// The VPN must exist; a dangling id means the caller raced a deletion
// and the error propagates as a job failure.
func (i *ClientInvalidator) InvalidateClients(ctx context.Context, vpnID string) error {
	vpn, err := i.store.Get(ctx, vpnID)
	if err != nil {
		return err
	}
	if err := i.cache.Invalidate(ctx, cache.VpnClientsKey(vpn.ID)); err != nil {
		return err
	}
	i.logger.Debug("vpn client cache invalidated", zap.String("vpn_id", vpn.ID))
	return nil
}
