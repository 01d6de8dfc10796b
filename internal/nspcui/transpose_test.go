package nspcui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspchistory"
)

// TestTransposeSelectionShiftsSelectedNotes reproduces the spec's scenario 3
// (§8.4): transpose(+12) over a two-row selection shifts row 0's Note{0x30}
// to Note{0x3C} and row 4's Note{0x34} to Note{0x40}, as one undoable unit.
func TestTransposeSelectionShiftsSelectedNotes(t *testing.T) {
	d := newTestDriver()
	d.Cursor = Cursor{Row: 0, Channel: 0, Item: ItemNote}
	require.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}))
	d.Cursor = Cursor{Row: 4, Channel: 0, Item: ItemNote}
	require.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x34}}))

	d.Selection = map[cellKey]bool{
		{row: 0, channel: 0, item: ItemNote}: true,
		{row: 4, channel: 0, item: ItemNote}: true,
	}

	// Start from an empty history so the undo checks below see only the
	// transpose, not the two setup writes.
	d.History = nspchistory.New(0)
	before := d.History.CanUndo()
	assert.False(t, before)

	applied := d.TransposeSelection(12)
	assert.True(t, applied)

	fp, err := d.FlatPattern()
	require.NoError(t, err)
	pitchAt := func(row uint32) (uint8, bool) {
		for _, fe := range fp.Channels[0].Events {
			if fe.Tick == row && fe.Event.Kind == nspc.EventNote {
				return fe.Event.Note.Pitch, true
			}
		}
		return 0, false
	}
	p0, ok := pitchAt(0)
	require.True(t, ok)
	assert.Equal(t, uint8(0x3C), p0)
	p4, ok := pitchAt(4)
	require.True(t, ok)
	assert.Equal(t, uint8(0x40), p4)

	// both cells' edits land in one undo step
	require.True(t, d.History.Undo(d.Song))
	fp, err = d.FlatPattern()
	require.NoError(t, err)
	p0After, ok := pitchAt(0)
	require.True(t, ok)
	assert.Equal(t, uint8(0x30), p0After)
	assert.False(t, d.History.CanUndo())
}

// TestTransposeSelectionClampsToMaxPitch mirrors the original's
// std::clamp(pitch + semitones, 0, 0x47): a transpose that would overflow
// the valid pitch range saturates at nspc.MaxPitch instead of wrapping.
func TestTransposeSelectionClampsToMaxPitch(t *testing.T) {
	d := newTestDriver()
	require.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: nspc.MaxPitch}}))
	d.Selection = map[cellKey]bool{{row: 0, channel: 0, item: ItemNote}: true}

	assert.True(t, d.TransposeSelection(5))

	fp, err := d.FlatPattern()
	require.NoError(t, err)
	for _, fe := range fp.Channels[0].Events {
		if fe.Tick == 0 && fe.Event.Kind == nspc.EventNote {
			assert.Equal(t, nspc.MaxPitch, fe.Event.Note.Pitch)
		}
	}
}

// TestTransposeSelectionIgnoresNonNoteCells confirms a Tie cell is left
// untouched, matching the original's std::get_if<Note> guard.
func TestTransposeSelectionIgnoresNonNoteCells(t *testing.T) {
	d := newTestDriver()
	require.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}))
	d.Cursor = Cursor{Row: 1, Channel: 0, Item: ItemNote}
	require.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventTie}))

	d.Selection = map[cellKey]bool{{row: 1, channel: 0, item: ItemNote}: true}
	applied := d.TransposeSelection(12)
	assert.False(t, applied)
}
