package nspccompile

import "github.com/ntrak-go/nspccore/internal/nspc"

// objectKind tags what an addressable object is, for chunk labelling and
// placement ordering (§4.5 step 4: "sequence, patterns' track tables,
// tracks, subroutines").
type objectKind int

const (
	objSequence objectKind = iota
	objPatternTable
	objTrack
	objSubroutine
)

// layoutObject is one thing the planner must place in ARAM.
type layoutObject struct {
	Kind         objectKind
	ID           int32
	Length       int
	OriginalAddr uint16
	HasOriginal  bool
}

type interval struct{ from, to int }

// occupancy tracks claimed ARAM byte ranges while planning a layout.
type occupancy struct {
	ranges []interval
}

func (o *occupancy) free(from, length int) bool {
	to := from + length
	if to > 0x10000 {
		return false
	}
	for _, r := range o.ranges {
		if from < r.to && r.from < to {
			return false
		}
	}
	return true
}

func (o *occupancy) claim(from, length int) {
	o.ranges = append(o.ranges, interval{from: from, to: from + length})
}

func newOccupancy(reserved []nspc.ReservedRegion, existing []nspc.ReservedRegion) *occupancy {
	o := &occupancy{}
	for _, r := range reserved {
		o.claim(int(r.From), int(r.To)-int(r.From))
	}
	for _, r := range existing {
		o.claim(int(r.From), int(r.To)-int(r.From))
	}
	return o
}

// findFree scans forward from 0 for the first gap able to hold length
// bytes, skipping claimed ranges.
func (o *occupancy) findFree(length int) (int, bool) {
	for addr := 0; addr+length <= 0x10000; {
		if o.free(addr, length) {
			return addr, true
		}
		advanced := false
		for _, r := range o.ranges {
			if addr < r.to && r.from < addr+length {
				addr = r.to
				advanced = true
				break
			}
		}
		if !advanced {
			addr++
		}
	}
	return 0, false
}

// planLayout assigns an address to every object, honoring compact's choice
// between tight packing and original-address reuse, and returns the final
// address per (kind, id).
func planLayout(cfg *nspc.EngineConfig, existing []nspc.ReservedRegion, objects []layoutObject, compact bool) (map[objectKind]map[int32]uint16, error) {
	o := newOccupancy(cfg.ReservedRegions, existing)
	result := make(map[objectKind]map[int32]uint16)
	for _, kind := range []objectKind{objSequence, objPatternTable, objTrack, objSubroutine} {
		result[kind] = map[int32]uint16{}
	}

	for _, kind := range []objectKind{objSequence, objPatternTable, objTrack, objSubroutine} {
		for _, obj := range objects {
			if obj.Kind != kind {
				continue
			}
			addr, ok := placeOne(o, obj, compact)
			if !ok {
				return nil, errOutOfAram(kindLabel(obj.Kind, obj.ID))
			}
			result[kind][obj.ID] = uint16(addr)
		}
	}
	return result, nil
}

func placeOne(o *occupancy, obj layoutObject, compact bool) (int, bool) {
	if !compact && obj.HasOriginal && o.free(int(obj.OriginalAddr), obj.Length) {
		o.claim(int(obj.OriginalAddr), obj.Length)
		return int(obj.OriginalAddr), true
	}
	addr, ok := o.findFree(obj.Length)
	if !ok {
		return 0, false
	}
	o.claim(addr, obj.Length)
	return addr, true
}

func kindLabel(kind objectKind, id int32) string {
	switch kind {
	case objSequence:
		return "Sequence"
	case objPatternTable:
		return "Pattern Table"
	case objTrack:
		return "Track"
	default:
		return "Subroutine"
	}
}
