package adoption

// Event topics the adoption module consumes and produces.
const (
	// TopicAnnouncements carries raw multi-line announcement text from
	// whatever collects service-discovery output. Payload: string.
	TopicAnnouncements = "adoption.announcements"
)
