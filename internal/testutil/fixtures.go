// Package testutil provides shared fixtures for fleetd tests.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisphive/fleetd/pkg/models"
)

// NewAdoptableDevice returns an AdoptableDevice with sensible defaults,
// suitable for test fixtures. Override individual fields via options.
func NewAdoptableDevice(opts ...func(*models.AdoptableDevice)) models.AdoptableDevice {
	d := models.AdoptableDevice{
		ID:              uuid.New().String(),
		NetworkAddress:  "10.0.0.10",
		MACAddress:      "00:11:22:33:44:55",
		AdoptionKey:     "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		OSVersion:       "OpenWrt 23.05",
		FirmwareVersion: "1.0.0",
		FirstSeen:       time.Now().UTC(),
		LastSeen:        time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithNetworkAddress sets the device's announced network address.
func WithNetworkAddress(addr string) func(*models.AdoptableDevice) {
	return func(d *models.AdoptableDevice) { d.NetworkAddress = addr }
}

// WithMAC sets the device's MAC address.
func WithMAC(mac string) func(*models.AdoptableDevice) {
	return func(d *models.AdoptableDevice) { d.MACAddress = mac }
}

// WithLastSeen sets the device's last_seen timestamp.
func WithLastSeen(t time.Time) func(*models.AdoptableDevice) {
	return func(d *models.AdoptableDevice) { d.LastSeen = t }
}

// NewTemplate returns a Template with sensible defaults.
func NewTemplate(opts ...func(*models.Template)) models.Template {
	t := models.Template{
		ID:             uuid.New().String(),
		Name:           "test-template",
		OrganizationID: "org-test",
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// WithBackend sets the template's config backend.
func WithBackend(backend string) func(*models.Template) {
	return func(t *models.Template) { t.Backend = backend }
}

// NewConfig returns a Config bound to the given device.
func NewConfig(deviceID string, opts ...func(*models.Config)) models.Config {
	c := models.Config{
		ID:       uuid.New().String(),
		DeviceID: deviceID,
		Status:   models.ConfigStatusApplied,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithGroup places the config under a device group.
func WithGroup(groupID string) func(*models.Config) {
	return func(c *models.Config) { c.GroupID = groupID }
}

// WithStatus sets the config's status.
func WithStatus(s models.ConfigStatus) func(*models.Config) {
	return func(c *models.Config) { c.Status = s }
}

// NewVpn returns a Vpn with sensible defaults.
func NewVpn(opts ...func(*models.Vpn)) models.Vpn {
	v := models.Vpn{
		ID:             uuid.New().String(),
		Name:           "test-vpn",
		OrganizationID: "org-test",
		Host:           "vpn.test.local",
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// WithWebhook sets the VPN's webhook endpoint and auth token.
func WithWebhook(endpoint, token string) func(*models.Vpn) {
	return func(v *models.Vpn) {
		v.WebhookEndpoint = endpoint
		v.AuthToken = token
	}
}
