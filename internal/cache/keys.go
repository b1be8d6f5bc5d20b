package cache

import "fmt"

// Key builders for the common-name -> device-group lookup cache. Every
// entry lives under its owning organization so an org-scoped wipe can use
// a single prefix without touching other orgs.

// OrgPrefix scopes all common-name entries for one organization.
func OrgPrefix(orgID string) string {
	return fmt.Sprintf("cn-group:%s:", orgID)
}

// CertKey is the entry for one certificate common name within an org.
func CertKey(orgID, commonName string) string {
	return OrgPrefix(orgID) + "cn:" + commonName
}

// DeviceKey indexes entries derived from one device.
func DeviceKey(deviceID string) string {
	return "cn-group:device:" + deviceID
}

// GroupKey indexes entries derived from one device group.
func GroupKey(groupID string) string {
	return "cn-group:group:" + groupID
}

// CertIDKey indexes entries derived from one certificate record.
func CertIDKey(certID string) string {
	return "cn-group:cert:" + certID
}

// VpnClientsKey holds the cached client list of one VPN server.
func VpnClientsKey(vpnID string) string {
	return "vpn-clients:" + vpnID
}
