package adoption

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/models"
)

// Reconciler brings the adoptable-device registry in line with a batch of
// service-discovery announcements. Each sweep is fire-and-forget and safe
// to re-run: known addresses get their last_seen bumped (last write wins),
// unknown addresses get a fresh record.
type Reconciler struct {
	store   *RegistryStore
	keys    *KeyDeriver
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewReconciler creates a reconciler writing through the given registry.
func NewReconciler(store *RegistryStore, keys *KeyDeriver, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		keys:    keys,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Reconcile parses raw announcement text and upserts every valid resolved
// entry. Malformed or incomplete entries are logged and skipped; they
// never abort the sweep. Registry errors on one entry do not stop
// processing of the rest; the first such error is reported after the
// sweep completes.
func (r *Reconciler) Reconcile(ctx context.Context, raw string) error {
	var firstErr error

	for _, ann := range ParseAnnouncements(raw) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !ann.Valid() {
			r.logger.Warn("invalid device announcement",
				zap.String("network_address", ann.NetworkAddress),
				zap.Any("records", ann.Records),
			)
			continue
		}

		if err := r.reconcileOne(ctx, ann); err != nil {
			r.logger.Error("failed to reconcile announcement",
				zap.String("network_address", ann.NetworkAddress),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Reconciler) reconcileOne(ctx context.Context, ann Announcement) error {
	now := r.nowFunc()

	err := r.store.TouchLastSeen(ctx, ann.NetworkAddress, now)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	key, err := r.keys.Derive(ann.Records[recordMAC])
	if err != nil {
		return err
	}

	device := &models.AdoptableDevice{
		NetworkAddress:  ann.NetworkAddress,
		MACAddress:      ann.Records[recordMAC],
		AdoptionKey:     key,
		OSVersion:       ann.Records[recordOSVersion],
		FirmwareVersion: ann.Records[recordVersion],
		FirstSeen:       now,
		LastSeen:        now,
	}
	if err := r.store.Insert(ctx, device); err != nil {
		return err
	}

	r.logger.Info("new adoptable device registered",
		zap.String("network_address", device.NetworkAddress),
		zap.String("mac_address", device.MACAddress),
		zap.String("os_version", device.OSVersion),
	)
	return nil
}
