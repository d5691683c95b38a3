// Package wire checks that a loaded schema document declares a format
// version this build of recordcache can read.
package wire

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// MinVersion is the oldest wire-format version this build can read.
// MaxMajor is the first major version this build cannot read.
var (
	MinVersion = version.Must(version.NewVersion("1.0.0"))
	MaxMajor   = 2
)

// CheckCompatible parses raw as a semantic version and reports whether
// it falls within [MinVersion, MaxMajor).
func CheckCompatible(raw string) error {
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("wire: invalid schema format version %q: %w", raw, err)
	}
	if v.LessThan(MinVersion) {
		return fmt.Errorf("wire: schema format version %s is older than the minimum supported %s", v, MinVersion)
	}
	if v.Segments()[0] >= MaxMajor {
		return fmt.Errorf("wire: schema format version %s is newer than this build supports (max major %d)", v, MaxMajor-1)
	}
	return nil
}
