package vpn

// Event topics the vpn module consumes.
const (
	// TopicVpnCreated fires once when a VPN server record is provisioned.
	// Payload: string (vpn id). Triggers DH parameter generation.
	TopicVpnCreated = "vpn.server.created"

	// TopicVpnChanged fires when a VPN server's managed configuration
	// changes. Payload: string (vpn id). Triggers the endpoint webhook.
	TopicVpnChanged = "vpn.server.changed"

	// TopicVpnPeersChanged fires when a VPN's client membership changes.
	// Payload: string (vpn id). Triggers client-list cache invalidation.
	TopicVpnPeersChanged = "vpn.server.peers_changed"
)
