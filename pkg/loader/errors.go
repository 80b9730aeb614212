package loader

import (
	"fmt"
	"strings"
)

// ConfigurationError reports loader options that do not match the accepted
// shape. It is returned before any file is read.
type ConfigurationError struct {
	// Key is the offending option, empty when the options object itself is
	// malformed.
	Key string
	// Expected describes the accepted shape, e.g. "array of string".
	Expected string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("loader: invalid configuration")
	if e.Key != "" {
		fmt.Fprintf(&b, ": option %q", e.Key)
	}
	if e.Expected != "" {
		b.WriteString(" should be ")
		b.WriteString(e.Expected)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
