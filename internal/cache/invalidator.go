package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/models"
	"github.com/wisphive/fleetd/pkg/plugin"
)

// Invalidator routes entity change events to the cache keys they make
// stale. Entity kinds form a closed set; an event carrying a kind outside
// the set this job accepts is an error, not a silent no-op.
type Invalidator struct {
	cache  plugin.Cache
	logger *zap.Logger
}

// NewInvalidator creates an invalidator writing through the given cache.
func NewInvalidator(cache plugin.Cache, logger *zap.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

// EntityChanged invalidates entries derived from a created or updated
// device, device group, or certificate.
func (i *Invalidator) EntityChanged(ctx context.Context, kind models.EntityKind, id string) error {
	var key string
	switch kind {
	case models.KindDevice:
		key = DeviceKey(id)
	case models.KindDeviceGroup:
		key = GroupKey(id)
	case models.KindCert:
		key = CertIDKey(id)
	default:
		return fmt.Errorf("invalidate change: unroutable entity kind %q (id %s)", kind, id)
	}

	if err := i.cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s %s: %w", kind, id, err)
	}
	i.logger.Debug("cache entry invalidated",
		zap.String("kind", string(kind)),
		zap.String("id", id),
	)
	return nil
}

// EntityDeleted invalidates entries orphaned by a deletion. Group
// deletions wipe the owning organization's scope; certificate deletions
// remove the single (org, common name) entry. The prefix keeps the wipe
// inside one organization.
func (i *Invalidator) EntityDeleted(ctx context.Context, kind models.EntityKind, orgID, commonName string) error {
	switch kind {
	case models.KindDeviceGroup:
		if err := i.cache.InvalidatePrefix(ctx, OrgPrefix(orgID)); err != nil {
			return fmt.Errorf("invalidate org %s after group delete: %w", orgID, err)
		}
	case models.KindCert:
		if err := i.cache.Invalidate(ctx, CertKey(orgID, commonName)); err != nil {
			return fmt.Errorf("invalidate cert %s/%s: %w", orgID, commonName, err)
		}
	default:
		return fmt.Errorf("invalidate delete: unroutable entity kind %q (org %s)", kind, orgID)
	}

	i.logger.Debug("cache entries invalidated after delete",
		zap.String("kind", string(kind)),
		zap.String("organization_id", orgID),
	)
	return nil
}
