// Package adoption discovers unmanaged devices from local-network service
// announcements and reconciles them into the adoptable-device registry.
package adoption

import "strings"

// Announcement field layout, semicolon-delimited:
//
//	0: '-', '+' or '=' (removed, added, resolved)
//	1: interface name
//	2: IPv4/IPv6
//	3: hostname
//	4: domain
//	5: domain tld
//	6: (unused)
//	7: network address
//	8: port
//	9-n: TXT records as key=value pairs
const (
	markerResolved = "="
	txtRecordStart = 9
	minFields      = txtRecordStart
)

// TXT record keys a valid announcement must carry.
const (
	recordMAC       = "mac"
	recordOSVersion = "os_version"
	recordVersion   = "version"
)

// Announcement is one resolved service-discovery entry.
type Announcement struct {
	Interface      string
	AddressFamily  string
	Hostname       string
	NetworkAddress string
	Port           string
	Records        map[string]string // TXT key=value records
}

// Valid reports whether the announcement carries all the records the
// registry needs to describe a device.
func (a Announcement) Valid() bool {
	for _, key := range []string{recordMAC, recordOSVersion, recordVersion} {
		if a.Records[key] == "" {
			return false
		}
	}
	return true
}

// ParseAnnouncements extracts resolved entries from raw multi-line
// announcement text. Lines not marked resolved, and lines too short to
// carry a network address, are skipped. Validation of TXT contents is the
// caller's concern; parsing never fails.
func ParseAnnouncements(raw string) []Announcement {
	var out []Announcement
	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(line, markerResolved) {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < minFields {
			continue
		}

		records := make(map[string]string)
		for _, txt := range fields[txtRecordStart:] {
			k, v, _ := strings.Cut(txt, "=")
			records[k] = v
		}

		out = append(out, Announcement{
			Interface:      fields[1],
			AddressFamily:  fields[2],
			Hostname:       fields[3],
			NetworkAddress: fields[7],
			Port:           fields[8],
			Records:        records,
		})
	}
	return out
}
