package nspcui

import (
	"strconv"
	"strings"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspceditor"
)

// DeleteAtCursor deletes the row-event anchor at the cursor (§4.3.3), a
// no-op on a continuation row.
func (d *Driver) DeleteAtCursor() bool {
	return d.do("delete row", func(song *nspc.Song) bool {
		return nspceditor.DeleteRowEvent(song, d.location())
	})
}

// InsertTickAtCursor extends the span under the cursor by one tick (§4.3.4).
func (d *Driver) InsertTickAtCursor() bool {
	return d.do("insert tick", func(song *nspc.Song) bool {
		return nspceditor.InsertTickAtRow(song, d.location())
	})
}

// RemoveTickAtCursor shrinks the span under the cursor by one tick (§4.3.4).
func (d *Driver) RemoveTickAtCursor() bool {
	return d.do("remove tick", func(song *nspc.Song) bool {
		return nspceditor.RemoveTickAtRow(song, d.location())
	})
}

// SetNoteAtCursor writes a Note/Tie/Rest/Percussion at the cursor (§4.3.2).
func (d *Driver) SetNoteAtCursor(event nspc.Event) bool {
	return d.do("set note", func(song *nspc.Song) bool {
		return nspceditor.SetRowEvent(song, d.location(), event)
	})
}

// CommitHexValue applies the accumulated hex digits to the column the
// cursor's Item names, clearing the accumulator on success or failure
// alike (the teacher's idiom: a committed or abandoned entry both reset).
func (d *Driver) CommitHexValue() bool {
	defer func() { d.hexAccum = "" }()
	if d.hexAccum == "" {
		return false
	}
	n, err := strconv.ParseUint(d.hexAccum, 16, 8)
	if err != nil {
		return false
	}
	v := uint8(n)
	loc := d.location()
	switch d.Cursor.Item {
	case ItemInst:
		return d.do("set instrument", func(song *nspc.Song) bool {
			return nspceditor.SetInstrumentAtRow(song, loc, &v)
		})
	case ItemVol:
		return d.do("set volume", func(song *nspc.Song) bool {
			return nspceditor.SetVolumeAtRow(song, loc, &v)
		})
	case ItemQV:
		quant := (v >> 4) & 0x07
		vel := v & 0x0F
		return d.do("set qv", func(song *nspc.Song) bool {
			return nspceditor.SetQVAtRow(song, loc, &quant, &vel)
		})
	default:
		return false
	}
}

// typeHexDigit appends a typed hex digit to the accumulator and, once two
// digits have been entered, commits it immediately (matching a tracker's
// "type two nibbles, value lands" feel).
func (d *Driver) typeHexDigit(key string) {
	if len(key) != 1 || !strings.ContainsAny(key, "0123456789abcdefABCDEF") {
		return
	}
	if d.Cursor.Item != ItemInst && d.Cursor.Item != ItemVol && d.Cursor.Item != ItemQV {
		return
	}
	d.hexAccum += strings.ToLower(key)
	if len(d.hexAccum) >= 2 {
		d.CommitHexValue()
	}
}

// ClearValueAtCursor clears the Inst/Vol/QV/effect column under the cursor.
func (d *Driver) ClearValueAtCursor() bool {
	loc := d.location()
	switch d.Cursor.Item {
	case ItemInst:
		return d.do("clear instrument", func(song *nspc.Song) bool {
			return nspceditor.SetInstrumentAtRow(song, loc, nil)
		})
	case ItemVol:
		return d.do("clear volume", func(song *nspc.Song) bool {
			return nspceditor.SetVolumeAtRow(song, loc, nil)
		})
	case ItemQV:
		return d.do("clear qv", func(song *nspc.Song) bool {
			return nspceditor.SetQVAtRow(song, loc, nil, nil)
		})
	case ItemFX:
		return d.do("clear effects", func(song *nspc.Song) bool {
			return nspceditor.ClearEffectsAtRow(song, loc)
		})
	default:
		return false
	}
}
