package shipper

import (
	"fmt"
	"sort"
	"strings"
)

// Credentials is the opaque secret map a tenant stores for a carrier.
type Credentials map[string]string

// Get returns the trimmed value stored under key.
func (c Credentials) Get(key string) string {
	return strings.TrimSpace(c[key])
}

// Require fails with a configuration error naming every missing key.
func (c Credentials) Require(carrier string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if c.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return ConfigurationError(carrier,
		fmt.Sprintf("missing credentials: %s", strings.Join(missing, ", ")))
}
