// Package nspcflatten expands a pattern's tracks into a per-channel,
// tick-indexed timeline by inlining subroutine calls (§4.2).
package nspcflatten

import "github.com/ntrak-go/nspccore/internal/nspc"

// DefaultMaxSubroutineDepth bounds recursive inlining depth.
const DefaultMaxSubroutineDepth = 8

// DefaultMaxTicksPerChannel halts a channel's flattening if it runs away.
const DefaultMaxTicksPerChannel = 0x100000

// Options controls the flattening pass.
type Options struct {
	MaxSubroutineDepth    int
	MaxTicksPerChannel    uint32
	ClipToEarliestTrackEnd bool
}

// DefaultOptions returns the spec's default option set.
func DefaultOptions() Options {
	return Options{
		MaxSubroutineDepth:    DefaultMaxSubroutineDepth,
		MaxTicksPerChannel:    DefaultMaxTicksPerChannel,
		ClipToEarliestTrackEnd: false,
	}
}

// FlatEvent is one event in a flattened channel: its absolute tick and a
// back-reference to the owning stream entry it came from.
type FlatEvent struct {
	Tick             uint32
	Event            nspc.Event
	Source           nspc.EventRef
	SubroutineStack  []int32
}

// FlatChannel is one channel's flattened event list.
type FlatChannel struct {
	Events     []FlatEvent
	TotalTicks uint32
	// Ended is true if this channel's stream reached an End event.
	Ended bool
}

// FlatPattern is the flattened form of a pattern: one FlatChannel per of the
// eight channels, plus the pattern's overall playable length.
type FlatPattern struct {
	Channels   [8]FlatChannel
	TotalTicks uint32
}

// Flatten produces a FlatPattern for song's pattern patternID.
func Flatten(song *nspc.Song, patternID int32, opts Options) (*FlatPattern, error) {
	pattern := song.PatternByID(patternID)
	if pattern == nil {
		return nil, errNoSuchPattern(patternID)
	}
	fp := &FlatPattern{}
	var channelEnds [8]uint32
	anyEnded := false
	for c := 0; c < 8; c++ {
		var trackID int32 = -1
		if pattern.ChannelTrackIDs != nil {
			trackID = pattern.ChannelTrackIDs[c]
		}
		if trackID < 0 {
			continue
		}
		track := song.TrackByID(trackID)
		if track == nil {
			continue
		}
		fc := flattenChannel(song, track.ID, track.Events, opts)
		fp.Channels[c] = fc
		channelEnds[c] = fc.TotalTicks
		if fc.Ended {
			anyEnded = true
		}
	}

	if opts.ClipToEarliestTrackEnd {
		var min uint32
		first := true
		for c := 0; c < 8; c++ {
			if !fp.Channels[c].Ended {
				continue
			}
			if first || channelEnds[c] < min {
				min = channelEnds[c]
				first = false
			}
		}
		if anyEnded {
			fp.TotalTicks = min
		}
	} else {
		var max uint32
		for c := 0; c < 8; c++ {
			if channelEnds[c] > max {
				max = channelEnds[c]
			}
		}
		fp.TotalTicks = max
	}
	return fp, nil
}

type walkState struct {
	tick     uint32
	duration nspc.Duration
	stack    []int32
}

func flattenChannel(song *nspc.Song, trackID int32, events []nspc.Entry, opts Options) FlatChannel {
	fc := FlatChannel{}
	st := &walkState{duration: nspc.Duration{Ticks: 1}}
	walkStream(song, nspc.OwnerTrack, trackID, events, st, opts, &fc)
	fc.TotalTicks = st.tick
	return fc
}

// walkStream performs the depth-first traversal described in §4.2. It
// returns true if the stream reached an End event. Only a track's End marks
// the channel Ended; a subroutine's End ends the current repeat of the call.
func walkStream(song *nspc.Song, owner nspc.EventRefOwner, ownerID int32, events []nspc.Entry, st *walkState, opts Options, fc *FlatChannel) bool {
	for i, entry := range events {
		ref := nspc.EventRef{Owner: owner, OwnerID: ownerID, EventIndex: i, EventID: entry.ID}
		switch entry.Event.Kind {
		case nspc.EventDuration:
			st.duration = entry.Event.Duration
			fc.Events = append(fc.Events, FlatEvent{Tick: st.tick, Event: entry.Event, Source: ref, SubroutineStack: append([]int32(nil), st.stack...)})
		case nspc.EventVcmd:
			if entry.Event.Vcmd.Kind == nspc.VcmdSubroutineCall {
				subID := entry.Event.Vcmd.SubroutineID
				if len(st.stack) >= opts.MaxSubroutineDepth || onStack(st.stack, subID) {
					// Recursive or too-deep call: skip silently (§4.2, §9
					// "recursion safety").
					continue
				}
				sub := song.SubroutineByID(subID)
				if sub == nil {
					continue
				}
				st.stack = append(st.stack, subID)
				for iter := uint8(0); iter < entry.Event.Vcmd.Count; iter++ {
					// End inside a subroutine does not terminate the
					// caller; it only ends this repeat.
					walkStream(song, nspc.OwnerSubroutine, subID, sub.Events, st, opts, fc)
					if st.tick >= opts.MaxTicksPerChannel {
						break
					}
				}
				st.stack = st.stack[:len(st.stack)-1]
				continue
			}
			fc.Events = append(fc.Events, FlatEvent{Tick: st.tick, Event: entry.Event, Source: ref, SubroutineStack: append([]int32(nil), st.stack...)})
		case nspc.EventEnd:
			fc.Events = append(fc.Events, FlatEvent{Tick: st.tick, Event: entry.Event, Source: ref, SubroutineStack: append([]int32(nil), st.stack...)})
			if owner == nspc.OwnerTrack {
				fc.Ended = true
			}
			return true
		default:
			// Tick-consuming event.
			fc.Events = append(fc.Events, FlatEvent{Tick: st.tick, Event: entry.Event, Source: ref, SubroutineStack: append([]int32(nil), st.stack...)})
			st.tick += uint32(st.duration.Ticks)
			if st.tick > opts.MaxTicksPerChannel {
				return false
			}
		}
	}
	return false
}

func onStack(stack []int32, id int32) bool {
	for _, s := range stack {
		if s == id {
			return true
		}
	}
	return false
}

type flattenError struct {
	patternID int32
}

func (e *flattenError) Error() string {
	return "nspcflatten: no such pattern"
}

func errNoSuchPattern(id int32) error { return &flattenError{patternID: id} }
