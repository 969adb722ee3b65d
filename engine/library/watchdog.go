package library

import (
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// SlowOperation is how long an operation may run before Watch logs a warning.
var SlowOperation = 250 * time.Millisecond

// Watch starts timing the named operation and returns the func that ends it.
// An operation that never ends keeps a deadlock-detected mutex locked, so
// go-deadlock reports it with the stacks of both goroutines.
func Watch(name string) func() {
	started := time.Now()
	mu := &deadlock.Mutex{}
	mu.Lock()
	go func() {
		mu.Lock()
		mu.Unlock()
	}()
	return func() {
		mu.Unlock()
		if elapsed := time.Since(started); elapsed > SlowOperation {
			LogCLI(fmt.Sprintf("%s took %s", name, elapsed.Round(time.Millisecond)), 2)
		}
	}
}
