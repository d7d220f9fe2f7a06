package dispatch

import (
	"fmt"
	"sync/atomic"
	"time"
)

var orderSeq uint64

// newOrderID builds an id whose prefix-timestamp shape sorts by
// creation time; the atomic sequence keeps concurrent creations
// distinct even within one clock tick.
func newOrderID(prefix string) string {
	seq := atomic.AddUint64(&orderSeq, 1)
	return fmt.Sprintf("%s_%d_%04d", prefix, time.Now().UnixNano(), seq%10000)
}
