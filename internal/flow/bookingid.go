package flow

import (
	"context"
	"fmt"
)

// newBookingID composes a booking identifier from the org prefix, the
// category prefix, a UTC minute timestamp and the category's monotonic
// sequence. Uniqueness rests on the sequence alone; the timestamp is
// informational.
func (e *Engine) newBookingID(ctx context.Context, prefix string) (string, error) {
	seq, err := e.store.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	ts := e.now().UTC().Format("200601021504")
	return fmt.Sprintf("%s-%s-%s-%04d", e.orgPrefix, prefix, ts, seq), nil
}
