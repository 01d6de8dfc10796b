// Package miditransport emits MIDI clock and transport messages derived
// from PlaybackTrackingState (§5) so external MIDI-synced gear can follow
// NSPC playback, mirroring the teacher's internal/midiconnector's raw
// out.Send([]byte{...}) idiom for sending wire-format MIDI bytes directly
// rather than through a higher-level note abstraction.
package miditransport

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

const (
	statusTimingClock    byte = 0xF8
	statusStart          byte = 0xFA
	statusStop           byte = 0xFC
	statusSongPositionPt byte = 0xF2
)

// transportState is the minimal edge-detection state carried between ticks.
type transportState struct {
	hooksInstalled bool
	patternTick    int64
}

// messagesForTick decides which realtime MIDI messages to send for the
// transition from prev to the current snapshot. Pure and side-effect free
// so it can be tested without a real MIDI output port, the same way the
// teacher's midiconnector_test.go tests testFilterName instead of Devices().
func messagesForTick(prev transportState, snap nspc.PlaybackSnapshot) (msgs [][]byte, next transportState) {
	next = transportState{hooksInstalled: snap.HooksInstalled, patternTick: snap.PatternTick}

	if snap.HooksInstalled && !prev.hooksInstalled {
		msgs = append(msgs, []byte{statusStart})
	} else if !snap.HooksInstalled && prev.hooksInstalled {
		msgs = append(msgs, []byte{statusStop})
	}

	if snap.PatternTick < prev.patternTick {
		pos := uint16(snap.PatternTick) & 0x3FFF
		msgs = append(msgs, []byte{statusSongPositionPt, byte(pos & 0x7F), byte((pos >> 7) & 0x7F)})
	}

	if snap.HooksInstalled {
		msgs = append(msgs, []byte{statusTimingClock})
	}
	return msgs, next
}

// ClockOut sends realtime MIDI clock and transport messages to one output
// port, tracking just enough state to know whether playback just
// started/stopped and whether the tick counter jumped backward (loop/seek).
type ClockOut struct {
	mu    sync.Mutex
	out   drivers.Out
	state transportState
}

// Open finds an output port by name and opens it, the same lookup-then-open
// sequence as the teacher's midiconnector.Device.Open.
func Open(portName string) (*ClockOut, error) {
	out, err := midi.FindOutPort(portName)
	if err != nil {
		return nil, fmt.Errorf("miditransport: find out port %q: %w", portName, err)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("miditransport: open out port %q: %w", portName, err)
	}
	return &ClockOut{out: out}, nil
}

// Close stops transport and closes the port.
func (c *ClockOut) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.out.Send([]byte{statusStop})
	return c.out.Close()
}

// Tick reads the current snapshot, computes the messages owed since the
// last tick, and sends them in order.
func (c *ClockOut) Tick(state *nspc.PlaybackTrackingState) error {
	snap := state.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs, next := messagesForTick(c.state, snap)
	c.state = next
	for _, msg := range msgs {
		if err := c.out.Send(msg); err != nil {
			return fmt.Errorf("miditransport: send %#v: %w", msg, err)
		}
	}
	return nil
}
