package vpn

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Generator fills in a VPN's DH parameters after it is provisioned.
type Generator struct {
	store  *VpnStore
	source ParamSource
	logger *zap.Logger
}

// NewGenerator creates a generator drawing parameters from source.
func NewGenerator(store *VpnStore, source ParamSource, logger *zap.Logger) *Generator {
	return &Generator{store: store, source: source, logger: logger}
}

// Generate produces and persists DH parameters for the given VPN. An
// absent VPN is a job failure. A VPN that already has parameters is left
// alone, so replaying the job after a crash is cheap. On ctx expiry the
// context error propagates with nothing written; the record stays
// without parameters until the job runs again.
func (g *Generator) Generate(ctx context.Context, vpnID string) error {
	vpn, err := g.store.Get(ctx, vpnID)
	if err != nil {
		return err
	}
	if len(vpn.DH) != 0 {
		g.logger.Debug("vpn already has dh parameters", zap.String("vpn_id", vpnID))
		return nil
	}

	pemBytes, err := g.source.Params(ctx, DHBits)
	if err != nil {
		return fmt.Errorf("generate dh parameters for vpn %q: %w", vpnID, err)
	}

	vpn.DH = pemBytes
	if err := vpn.Validate(); err != nil {
		return err
	}
	if err := g.store.SetDH(ctx, vpnID, pemBytes); err != nil {
		return err
	}

	g.logger.Info("dh parameters generated",
		zap.String("vpn_id", vpnID),
		zap.Int("bits", DHBits),
	)
	return nil
}
