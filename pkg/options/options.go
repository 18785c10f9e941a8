// Package options defines the shared options contract and flag-name helpers.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join concatenates flag-name prefixes with "." and appends a trailing "."
// when the result is non-empty, producing names like "milvus.address" or
// "store.milvus.address".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions is implemented by every per-concern options struct.
type IOptions interface {
	// Validate checks the options and reports every problem found.
	Validate() []error

	// AddFlags registers the options on the given flagset, optionally
	// nested under the given prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
