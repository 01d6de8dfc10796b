package nspc

import "sync/atomic"

// PlaybackTrackingState holds the atomic counters an external audio emulator
// updates while it plays a song (§5 Concurrency & Resource Model). The core
// and any host UI only ever read these fields; the emulator thread is the
// sole writer. There is no locking because every field is independently
// atomic and readers tolerate torn reads across fields (a one-tick-stale
// PatternTick next to a fresh SequenceRow is harmless for a UI indicator).
type PlaybackTrackingState struct {
	SequenceRow    atomic.Int64
	PatternID      atomic.Int32
	PatternTick    atomic.Int64
	EventSerial    atomic.Int64
	HooksInstalled atomic.Bool
}

// PlaybackSnapshot is a point-in-time read of every tracked counter.
type PlaybackSnapshot struct {
	SequenceRow    int64
	PatternID      int32
	PatternTick    int64
	EventSerial    int64
	HooksInstalled bool
}

// Snapshot reads every counter once. Consumers that need to detect change
// should compare EventSerial, which the emulator bumps on every state
// update regardless of which other fields moved.
func (s *PlaybackTrackingState) Snapshot() PlaybackSnapshot {
	return PlaybackSnapshot{
		SequenceRow:    s.SequenceRow.Load(),
		PatternID:      s.PatternID.Load(),
		PatternTick:    s.PatternTick.Load(),
		EventSerial:    s.EventSerial.Load(),
		HooksInstalled: s.HooksInstalled.Load(),
	}
}
