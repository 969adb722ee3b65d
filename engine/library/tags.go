package library

import (
	"github.com/nbd-wtf/go-nostr"
)

func GetFirstTag(e nostr.Event, startsWith string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.StartsWith([]string{startsWith}) {
			return tag.Value(), true
		}
	}
	return "", false
}

// GetAllTags returns the value of every tag with the given key, in order.
func GetAllTags(e nostr.Event, key string) (r []string) {
	for _, tag := range e.Tags {
		if len(tag) > 1 && tag[0] == key {
			r = append(r, tag[1])
		}
	}
	return
}
