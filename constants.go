package sensorhub

import "github.com/brodyw/sensorhub/internal/constants"

// Re-exported capacity defaults, so callers configuring a Hub don't
// need to import internal/constants directly.
const (
	DefaultMaxSensors        = constants.DefaultMaxSensors
	DefaultMaxRequests       = constants.DefaultMaxRequests
	DefaultMaxInternalEvents = constants.DefaultMaxInternalEvents
)
