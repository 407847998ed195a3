// ABOUTME: Product and version identification
// ABOUTME: Reported by the CLI, the lyrics server health check and mDNS TXT records
package version

// Version is overridden at build time with -ldflags "-X .../version.Version=..."
var Version = "0.3.0"

const (
	Product      = "resonate-lyrics"
	Manufacturer = "Resonate"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
