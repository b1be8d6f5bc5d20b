package models

// ConfigStatus tracks whether a device configuration matches what the
// controller last pushed.
type ConfigStatus string

const (
	ConfigStatusApplied  ConfigStatus = "applied"
	ConfigStatusModified ConfigStatus = "modified"
	ConfigStatusError    ConfigStatus = "error"
)

// Template is a configuration template. Configs bound to a template must be
// flagged modified whenever the template changes.
type Template struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
	Backend        string `json:"backend"` // Config backend this template renders for
}

// Config is a device configuration derived from zero or more templates.
type Config struct {
	ID       string       `json:"id"`
	DeviceID string       `json:"device_id"`
	GroupID  string       `json:"group_id,omitempty"`
	Backend  string       `json:"backend"`
	Status   ConfigStatus `json:"status"`
}
