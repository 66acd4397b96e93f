package output

import (
	"fmt"
	"time"
)

// FormatElapsed renders a duration the way step summaries display it:
// tenths of a second under a minute, minutes and whole seconds above.
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", mins, secs)
}
