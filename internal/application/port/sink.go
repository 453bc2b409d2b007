package port

import "time"

// Sink receives rendered report output.
type Sink interface {
	// WriteReport appends a timestamped report block.
	WriteReport(ts time.Time, lines []string) error
	NewLine() error
}
