package actors

import (
	"github.com/sasha-s/go-deadlock"
)

var terminateChan chan struct{}
var waitGroup = &deadlock.WaitGroup{}
var shutdownOnce = &deadlock.Mutex{}

func SetTerminateChan(term chan struct{}) {
	terminateChan = term
}

func GetTerminateChan() chan struct{} {
	return terminateChan
}

// GetWaitGroup is held by every long running goroutine until it has cleaned up after termination.
func GetWaitGroup() *deadlock.WaitGroup {
	return waitGroup
}

// Shutdown closes the terminate channel once and waits for everything holding the wait group.
func Shutdown() {
	shutdownOnce.Lock()
	select {
	case <-terminateChan:
	default:
		close(terminateChan)
	}
	shutdownOnce.Unlock()
	waitGroup.Wait()
}
