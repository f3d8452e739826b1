package instance

import (
	"os"

	"github.com/angelmondragon/bakery-backend/pkg/env"
)

// EnvInstanceID overrides the identifier attached to logs and error reports.
const EnvInstanceID = "BAKERY_INSTANCE_ID"

// GetID returns the process identifier: BAKERY_INSTANCE_ID, then the platform
// dyno name, then the hostname.
func GetID() string {
	if id := env.First(EnvInstanceID, "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
