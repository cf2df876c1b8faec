package controller

import (
	"encoding/json"

	"wheelly/control/internal/streams"
)

// RawTap fans all four of a Robot's message streams into one ordered,
// kind-tagged tap of JSON-encoded payloads, for the diagnostic websocket
// and any other observer that wants every message as it is produced
// rather than the throttled world-model snapshots the inference callback
// sees. Cross-kind ordering is not guaranteed; each kind's own
// ordering is preserved.
func RawTap(done <-chan struct{}, robot Robot) <-chan streams.Tagged[[]byte] {
	sources := map[string]<-chan []byte{
		"motion":   encodeChan(done, robot.Motion()),
		"proxy":    encodeChan(done, robot.Proxy()),
		"contacts": encodeChan(done, robot.Contacts()),
		"camera":   encodeChan(done, robot.Camera()),
	}
	return streams.MergeTagged(done, sources)
}

func encodeChan[T any](done <-chan struct{}, src <-chan T) <-chan []byte {
	out := make(chan []byte)
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
				payload, err := json.Marshal(v)
				if err != nil {
					continue
				}
				select {
				case out <- payload:
				case <-done:
					return
				}
			}
		}
	}()
	return out
}
