package version

import (
	"runtime"
	"time"
)

// Name is the binary name used in logs, the keyring and the user agent.
const Name = "sitesaver"

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// UserAgent is sent by outbound HTTP clients.
func UserAgent() string {
	return Name + "/" + Version
}
