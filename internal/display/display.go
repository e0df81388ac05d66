// Package display contains terminal formatting logic for the payouts command.
//
// The command keeps fetching and aggregation separate from rendering by
// delegating all human-readable output to formatters in this package.
package display

import "io"

// Formatter writes formatted output to a writer.
type Formatter interface {
	Format(w io.Writer) error
}
