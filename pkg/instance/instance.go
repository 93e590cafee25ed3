package instance

import "os"

const defaultID = "local"

// GetID identifies the running process in logs. HOSTEL_INSTANCE_ID wins over
// the platform DYNO variable; the hostname is the last resort.
func GetID() string {
	for _, key := range []string{"HOSTEL_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
