package models

import "fmt"

// EntityKind discriminates which domain entity type produced a change
// event. Cache invalidation and template cascade routing switch on it; the
// set is closed so routing code can reject anything outside it instead of
// silently dropping the event.
type EntityKind string

const (
	KindDevice      EntityKind = "device"
	KindDeviceGroup EntityKind = "devicegroup"
	KindCert        EntityKind = "cert"
	KindConfig      EntityKind = "config"
)

// ParseEntityKind maps a wire string to an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindDevice, KindDeviceGroup, KindCert, KindConfig:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}
