package models

import "testing"

func TestParseEntityKind(t *testing.T) {
	for _, s := range []string{"device", "devicegroup", "cert", "config"} {
		kind, err := ParseEntityKind(s)
		if err != nil {
			t.Errorf("ParseEntityKind(%q): %v", s, err)
		}
		if string(kind) != s {
			t.Errorf("ParseEntityKind(%q) = %q", s, kind)
		}
	}

	if _, err := ParseEntityKind("vlan"); err == nil {
		t.Error("unknown kind must be rejected")
	}
	if _, err := ParseEntityKind(""); err == nil {
		t.Error("empty kind must be rejected")
	}
}
