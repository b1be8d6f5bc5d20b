package templates

import "github.com/wisphive/fleetd/pkg/models"

// Event topics the templates module consumes and produces.
const (
	// TopicTemplateChanged triggers status propagation. Payload: string
	// (template id).
	TopicTemplateChanged = "templates.template.changed"

	// TopicCascade triggers template-assignment cascades. Payload:
	// CascadeEvent.
	TopicCascade = "templates.cascade"

	// TopicConfigStatusChanged announces a config flagged modified.
	// Payload: ConfigStatusEvent.
	TopicConfigStatusChanged = "templates.config.status_changed"
)

// ConfigStatusEvent is the payload for TopicConfigStatusChanged.
type ConfigStatusEvent struct {
	ConfigID   string              `json:"config_id"`
	DeviceID   string              `json:"device_id"`
	TemplateID string              `json:"template_id"`
	Status     models.ConfigStatus `json:"status"`
}

// CascadeEvent is the payload for TopicCascade. Exactly one kind-specific
// field set applies per event.
type CascadeEvent struct {
	Kind models.EntityKind `json:"kind"`

	// Kind == device: devices moved between groups.
	DeviceIDs   []string `json:"device_ids,omitempty"`
	OldGroupIDs []string `json:"old_group_ids,omitempty"`
	GroupID     string   `json:"group_id,omitempty"`

	// Kind == devicegroup: a group's template set changed.
	OldTemplateIDs []string `json:"old_template_ids,omitempty"`
	TemplateIDs    []string `json:"template_ids,omitempty"`

	// Kind == config: a config switched backend.
	ConfigID   string `json:"config_id,omitempty"`
	OldBackend string `json:"old_backend,omitempty"`
	Backend    string `json:"backend,omitempty"`
}
