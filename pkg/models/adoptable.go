package models

import "time"

// AdoptableDevice is a network device announced over local-network service
// discovery but not yet adopted into the managed fleet. The network address
// is the stable lookup key; records are created on first sighting and have
// last_seen bumped on every subsequent one.
type AdoptableDevice struct {
	ID              string    `json:"id"`
	NetworkAddress  string    `json:"network_address"` // Unique
	MACAddress      string    `json:"mac_address"`
	AdoptionKey     string    `json:"adoption_key"`
	OSVersion       string    `json:"os_version"`
	FirmwareVersion string    `json:"firmware_version"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
}
