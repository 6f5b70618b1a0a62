package instance

import "os"

// GetID returns the platform-assigned instance identifier, falling back to the host name.
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
