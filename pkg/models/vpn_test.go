package models

import (
	"encoding/pem"
	"testing"
)

func TestVpnValidate(t *testing.T) {
	dh := pem.EncodeToMemory(&pem.Block{Type: "DH PARAMETERS", Bytes: []byte{0x30, 0x00}})
	rsa := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: []byte{0x30, 0x00}})

	tests := []struct {
		name    string
		vpn     Vpn
		wantErr bool
	}{
		{"no dh yet", Vpn{ID: "v1", Name: "edge"}, false},
		{"valid dh", Vpn{ID: "v1", Name: "edge", DH: dh}, false},
		{"missing id", Vpn{Name: "edge"}, true},
		{"missing name", Vpn{ID: "v1"}, true},
		{"not pem", Vpn{ID: "v1", Name: "edge", DH: []byte("garbage")}, true},
		{"wrong block type", Vpn{ID: "v1", Name: "edge", DH: rsa}, true},
		{"trailing data", Vpn{ID: "v1", Name: "edge", DH: append(append([]byte{}, dh...), "extra"...)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vpn.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
