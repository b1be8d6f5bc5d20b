package models

import (
	"bytes"
	"encoding/pem"
	"fmt"
)

// Vpn is a managed VPN server. DH holds the PEM-encoded Diffie-Hellman
// parameter blob; it stays empty until the parameter generator job has run
// to completion.
type Vpn struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	OrganizationID  string `json:"organization_id"`
	Host            string `json:"host"`
	WebhookEndpoint string `json:"webhook_endpoint,omitempty"`
	AuthToken       string `json:"-"`
	DH              []byte `json:"-"`
}

// dhPEMType is the PEM block type OpenSSL emits for DH parameters.
const dhPEMType = "DH PARAMETERS"

// Validate checks the entity is in a persistable state. A VPN with DH
// material must carry a well-formed PEM block; a VPN without DH material
// is valid (parameters are generated asynchronously).
func (v *Vpn) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vpn: missing id")
	}
	if v.Name == "" {
		return fmt.Errorf("vpn %s: missing name", v.ID)
	}
	if len(v.DH) == 0 {
		return nil
	}
	block, rest := pem.Decode(v.DH)
	if block == nil || block.Type != dhPEMType {
		return fmt.Errorf("vpn %s: dh is not a %s PEM block", v.ID, dhPEMType)
	}
	if len(bytes.TrimSpace(rest)) != 0 {
		return fmt.Errorf("vpn %s: trailing data after dh PEM block", v.ID)
	}
	return nil
}
