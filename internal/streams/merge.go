package streams

import "github.com/niceyeti/channerics/channels"

// Tagged wraps a value from one of several merged source streams together
// with the name of the stream it came from, since cross-stream ordering is
// explicitly not guaranteed and a consumer of the merged tap
// still needs to tell the streams apart.
type Tagged[T any] struct {
	Kind  string
	Value T
}

// MergeTagged fans multiple typed channels into one, tagging each item with
// its source kind. Used by the raw diagnostic tap (controller.RawTap,
// served on /ws/raw) to observe every message kind over a single channel
// without reimplementing select-on-N-channels by hand.
func MergeTagged[T any](done <-chan struct{}, sources map[string]<-chan T) <-chan Tagged[T] {
	tagged := make([]<-chan Tagged[T], 0, len(sources))
	for kind, src := range sources {
		tagged = append(tagged, tagChannel(done, kind, src))
	}
	return channels.Merge(done, tagged...)
}

func tagChannel[T any](done <-chan struct{}, kind string, src <-chan T) <-chan Tagged[T] {
	out := make(chan Tagged[T])
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case v, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- Tagged[T]{Kind: kind, Value: v}:
				case <-done:
					return
				}
			}
		}
	}()
	return out
}
