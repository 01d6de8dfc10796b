// Package telemetry broadcasts PlaybackTrackingState (§5) over OSC so
// external VU-meter/indicator tooling can follow playback without reading
// core memory directly. It never drives playback and never blocks a core
// operation: Send is fire-and-forget, matching the teacher's own
// oscClient usage in internal/model/model.go (errors are logged, not
// propagated, because a dropped UI-indicator packet is not a core failure).
package telemetry

import (
	"log"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

// Broadcaster sends periodic OSC snapshots of a PlaybackTrackingState to a
// single configured address, the same shape as the teacher's Model.oscClient.
type Broadcaster struct {
	client  *osc.Client
	address string
	last    int64 // last broadcast EventSerial; -1 forces the first send
}

// NewBroadcaster dials an OSC client bound to host:port. It never returns an
// error: osc.NewClient defers the actual UDP write to Send, same as the
// teacher's osc.NewClient("localhost", oscPort) call site.
func NewBroadcaster(host string, port int, address string) *Broadcaster {
	return &Broadcaster{
		client:  osc.NewClient(host, port),
		address: address,
		last:    -1,
	}
}

// Publish sends the current snapshot if its EventSerial has advanced since
// the last publish, and reports whether it sent. A caller polls this from a
// timer tick; there is no background goroutine owned by this package.
func (b *Broadcaster) Publish(state *nspc.PlaybackTrackingState) bool {
	snap := state.Snapshot()
	if snap.EventSerial == b.last {
		return false
	}
	b.last = snap.EventSerial

	msg := osc.NewMessage(b.address)
	msg.Append(snap.SequenceRow)
	msg.Append(snap.PatternID)
	msg.Append(snap.PatternTick)
	msg.Append(snap.EventSerial)
	hooks := int32(0)
	if snap.HooksInstalled {
		hooks = 1
	}
	msg.Append(hooks)

	if err := b.client.Send(msg); err != nil {
		log.Printf("telemetry: sending OSC tracking message: %v", err)
	}
	return true
}
