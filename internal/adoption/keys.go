package adoption

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const adoptionKeyLen = 32

// KeyDeriver produces adoption keys for newly registered devices. With a
// cluster secret configured, keys are derived with HKDF-SHA256 from the
// device MAC, so a device that re-announces after a registry wipe gets
// the same key back. Without a secret, keys are random.
type KeyDeriver struct {
	secret []byte
}

// NewKeyDeriver creates a deriver. secret may be empty.
func NewKeyDeriver(secret string) *KeyDeriver {
	return &KeyDeriver{secret: []byte(secret)}
}

// Derive returns the adoption key for a device MAC address.
func (k *KeyDeriver) Derive(mac string) (string, error) {
	if len(k.secret) == 0 {
		return strings.ReplaceAll(uuid.New().String(), "-", ""), nil
	}

	r := hkdf.New(sha256.New, k.secret, nil, []byte("fleetd-adoption:"+strings.ToLower(mac)))
	key := make([]byte, adoptionKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return "", fmt.Errorf("derive adoption key for %s: %w", mac, err)
	}
	return hex.EncodeToString(key), nil
}
