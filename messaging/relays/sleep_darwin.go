//go:build darwin

package relays

import (
	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
)

// Sleeper closes the returned channel when the machine goes to sleep. Relay
// connections do not survive sleep, so the engine shuts down cleanly instead.
func Sleeper() <-chan struct{} {
	asleep := make(chan struct{})
	sleepNotifier := notifier.GetInstance().Start()
	go func() {
		for activity := range sleepNotifier {
			if activity.Type == notifier.Sleep {
				close(asleep)
				return
			}
		}
	}()
	return asleep
}
