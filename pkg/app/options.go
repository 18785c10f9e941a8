package app

import "github.com/spf13/pflag"

// CliOptions is the contract for the application's top-level options struct.
type CliOptions interface {
	// AddFlags adds flags to the flagset.
	AddFlags(fs *pflag.FlagSet)
	// Validate validates the options.
	Validate() error
	// Complete fills in defaults before validation.
	Complete() error
}
