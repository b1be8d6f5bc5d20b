package adoption

import "testing"

func TestParseAnnouncements_ResolvedOnly(t *testing.T) {
	raw := "+;eth0;IPv4;ap-1;local;;ap-1.local;10.0.0.4;1234;mac=AA:BB:CC:00:00:04\n" +
		"=;eth0;IPv4;ap-2;local;;ap-2.local;10.0.0.5;1234;mac=AA:BB:CC:00:00:05;os_version=1.2;version=3.0\n" +
		"-;eth0;IPv4;ap-3;local;;ap-3.local;10.0.0.6;1234;mac=AA:BB:CC:00:00:06"

	anns := ParseAnnouncements(raw)
	if len(anns) != 1 {
		t.Fatalf("expected 1 resolved announcement, got %d", len(anns))
	}
	a := anns[0]
	if a.NetworkAddress != "10.0.0.5" {
		t.Errorf("network address = %q, want 10.0.0.5", a.NetworkAddress)
	}
	if a.Port != "1234" {
		t.Errorf("port = %q, want 1234", a.Port)
	}
	if a.Records["mac"] != "AA:BB:CC:00:00:05" {
		t.Errorf("mac record = %q", a.Records["mac"])
	}
}

func TestParseAnnouncements_TXTSplitOnFirstEquals(t *testing.T) {
	raw := "=;eth0;IPv4;ap;local;;ap.local;10.0.0.9;80;note=a=b=c;mac=AA:BB:CC:DD:EE:FF;os_version=1;version=2"

	anns := ParseAnnouncements(raw)
	if len(anns) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(anns))
	}
	if got := anns[0].Records["note"]; got != "a=b=c" {
		t.Errorf("note record = %q, want value split on first '=' only", got)
	}
}

func TestParseAnnouncements_ShortLineSkipped(t *testing.T) {
	if anns := ParseAnnouncements("=;eth0;IPv4"); len(anns) != 0 {
		t.Fatalf("expected short line to be skipped, got %d entries", len(anns))
	}
}

func TestParseAnnouncements_EmptyInput(t *testing.T) {
	if anns := ParseAnnouncements(""); len(anns) != 0 {
		t.Fatalf("expected no announcements, got %d", len(anns))
	}
}

func TestAnnouncementValid(t *testing.T) {
	cases := []struct {
		name    string
		records map[string]string
		want    bool
	}{
		{"all present", map[string]string{"mac": "AA:BB", "os_version": "1", "version": "2"}, true},
		{"missing mac", map[string]string{"os_version": "1", "version": "2"}, false},
		{"missing os_version", map[string]string{"mac": "AA:BB", "version": "2"}, false},
		{"missing version", map[string]string{"mac": "AA:BB", "os_version": "1"}, false},
		{"empty value", map[string]string{"mac": "", "os_version": "1", "version": "2"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Announcement{Records: tc.records}
			if got := a.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}
