package nspcui

import (
	"fmt"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspceditor"
)

// TransposeSelection shifts every selected Note cell's pitch by semitones,
// clamped to [0, nspc.MaxPitch] (0x47), grounded on the original's
// transposeSelectedCells: selection-scoped, Note-only (Tie/Rest/Percussion
// cells are left alone), and undoable as a single unit. Falls back to the
// cursor's cell when nothing is selected. Returns whether any cell changed.
func (d *Driver) TransposeSelection(semitones int) bool {
	keys := d.Selection
	if len(keys) == 0 {
		keys = map[cellKey]bool{{d.Cursor.Row, d.Cursor.Channel, ItemNote}: true}
	}

	tx := d.History.BeginTransaction(fmt.Sprintf("transpose %+d semitones", semitones))
	defer tx.Close()

	updated := false
	for key := range keys {
		if key.item != ItemNote {
			continue
		}
		cell := d.cellAt(key)
		if cell.RowEvent == nil || cell.RowEvent.Kind != nspc.EventNote {
			continue
		}
		newPitch := clampPitch(int(cell.RowEvent.Note.Pitch) + semitones)
		loc := nspceditor.Location{PatternID: d.PatternID, Channel: key.channel, Row: key.row}
		if d.do("transpose", func(song *nspc.Song) bool {
			return nspceditor.SetRowEvent(song, loc, nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: newPitch}})
		}) {
			updated = true
		}
	}
	return updated
}

func clampPitch(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > int(nspc.MaxPitch) {
		return nspc.MaxPitch
	}
	return uint8(p)
}
