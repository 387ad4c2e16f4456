package domain

const (
	// DefaultSiteID is the Hermes site used when a start message does not name one.
	DefaultSiteID = "default"
)
