package cache

import "github.com/wisphive/fleetd/pkg/models"

// Topics the cache module consumes. The web/API layer publishes one event
// per entity create/update/delete; this module turns them into targeted
// invalidation jobs.
const (
	TopicEntityChanged = "fleet.entity.changed"
	TopicEntityDeleted = "fleet.entity.deleted"
)

// EntityChange is the payload for TopicEntityChanged and TopicEntityDeleted.
type EntityChange struct {
	Kind           models.EntityKind `json:"kind"`
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id,omitempty"`
	CommonName     string            `json:"common_name,omitempty"` // Cert deletions only
}
