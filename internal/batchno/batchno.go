// Package batchno generates ledger batch numbers such as IN-1718000000000.
package batchno

import (
	"fmt"
	"sync"
	"time"
)

var (
	mu   sync.Mutex
	last int64
)

// Next returns prefix-<unix millis>. Values are strictly increasing within
// the process, so two calls in the same millisecond still differ.
func Next(prefix string) string {
	mu.Lock()
	defer mu.Unlock()
	ts := time.Now().UnixMilli()
	if ts <= last {
		ts = last + 1
	}
	last = ts
	return fmt.Sprintf("%s-%d", prefix, ts)
}
