package m93xx

import "time"

// deadline is an absolute point in time that may or may not be armed.
type deadline struct {
	at    time.Time
	armed bool
}

func (d *deadline) arm(now time.Time, after time.Duration) {
	d.at = now.Add(after)
	d.armed = true
}

func (d *deadline) cancel() {
	d.armed = false
}

// expired reports whether an armed deadline has passed, disarming it if so.
func (d *deadline) expired(now time.Time) bool {
	if !d.armed || now.Before(d.at) {
		return false
	}
	d.armed = false
	return true
}
