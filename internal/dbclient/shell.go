package dbclient

import (
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// commandLine joins already-safe tokens (binary names, flags) with
// shell-quoted values. Every value from a URI or query text goes
// through quote before it reaches this function.
func commandLine(parts ...string) string {
	return strings.Join(parts, " ")
}

// quote escapes a single value for sh -c.
func quote(v string) string {
	return shellescape.Quote(v)
}
