//go:build !darwin

package relays

// Sleeper never fires where sleep notifications are unavailable.
func Sleeper() <-chan struct{} {
	return make(chan struct{})
}
