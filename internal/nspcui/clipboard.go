package nspcui

import (
	"log"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspceditor"
)

// CopySelection snapshots every selected cell's row event into the
// clipboard, replacing any prior contents. Mirrors the teacher's
// CopyCellToClipboard: one ClipboardCell per selected (row, channel, item).
func (d *Driver) CopySelection() {
	d.Clipboard = d.Clipboard[:0]
	if len(d.Selection) == 0 {
		d.Selection[cellKey{d.Cursor.Row, d.Cursor.Channel, d.Cursor.Item}] = true
	}
	for key := range d.Selection {
		cell := d.cellAt(key)
		d.Clipboard = append(d.Clipboard, cell)
	}
	log.Printf("nspcui: copied %d cell(s)", len(d.Clipboard))
}

// CutSelection copies the selection, then clears every selected cell: a
// Note cell is deleted through DeleteAtCursor, and any other cell's value
// column is cleared through ClearValueAtCursor (§4.3.7 "clear").
func (d *Driver) CutSelection() {
	d.CopySelection()
	for key := range d.Selection {
		saved := d.Cursor
		d.Cursor = Cursor{Row: key.row, Channel: key.channel, Item: key.item}
		if key.item == ItemNote {
			d.DeleteAtCursor()
		} else {
			d.ClearValueAtCursor()
		}
		d.Cursor = saved
	}
}

// PasteAtCursor writes every clipboard entry onto the cursor's row,
// keeping each entry's channel/item offset from the first entry. Row
// offsets are not kept: entries copied from several rows all land on the
// cursor row.
func (d *Driver) PasteAtCursor() bool {
	if len(d.Clipboard) == 0 {
		return false
	}
	base := d.Clipboard[0]
	applied := false
	for _, cell := range d.Clipboard {
		rowDelta := int64(0) // single-row paste; block paste keeps column offsets only
		chanDelta := cell.Channel - base.Channel
		itemDelta := int(cell.Item) - int(base.Item)

		target := Cursor{
			Row:     uint32(int64(d.Cursor.Row) + rowDelta),
			Channel: clampChannel(d.Cursor.Channel + chanDelta),
			Item:    clampItem(int(d.Cursor.Item) + itemDelta),
		}
		if d.pasteCell(target, cell) {
			applied = true
		}
	}
	return applied
}

func (d *Driver) pasteCell(target Cursor, cell ClipboardCell) bool {
	saved := d.Cursor
	d.Cursor = target
	defer func() { d.Cursor = saved }()

	switch cell.Item {
	case ItemNote:
		if cell.RowEvent == nil {
			return false
		}
		return d.SetNoteAtCursor(*cell.RowEvent)
	case ItemInst:
		if cell.Value == nil {
			return false
		}
		v := *cell.Value
		loc := d.location()
		return d.do("paste instrument", func(song *nspc.Song) bool {
			return nspceditor.SetInstrumentAtRow(song, loc, &v)
		})
	case ItemVol:
		if cell.Value == nil {
			return false
		}
		v := *cell.Value
		loc := d.location()
		return d.do("paste volume", func(song *nspc.Song) bool {
			return nspceditor.SetVolumeAtRow(song, loc, &v)
		})
	case ItemFX:
		if len(cell.Effects) == 0 {
			return false
		}
		applied := false
		loc := d.location()
		for _, fx := range cell.Effects {
			fx := fx
			if d.do("paste effect", func(song *nspc.Song) bool {
				return nspceditor.AddEffectAtRow(song, loc, fx)
			}) {
				applied = true
			}
		}
		return applied
	default:
		return false
	}
}

func clampChannel(c int) int {
	if c < 0 {
		return 0
	}
	if c > 7 {
		return 7
	}
	return c
}

func clampItem(i int) Item {
	if i < int(ItemNote) {
		return ItemNote
	}
	if i > int(ItemFX) {
		return ItemFX
	}
	return Item(i)
}

func (d *Driver) cellAt(key cellKey) ClipboardCell {
	cell := ClipboardCell{Channel: key.channel, Item: key.item}
	fp, err := d.FlatPattern()
	if err != nil {
		return cell
	}
	for _, fe := range fp.Channels[key.channel].Events {
		if fe.Tick != key.row {
			continue
		}
		switch key.item {
		case ItemNote:
			if fe.Event.IsTickConsuming() {
				ev := fe.Event
				cell.RowEvent = &ev
			}
		case ItemInst:
			if fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind == nspc.VcmdInst {
				v := fe.Event.Vcmd.Value
				cell.Value = &v
			}
		case ItemVol:
			if fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind == nspc.VcmdVolume {
				v := fe.Event.Vcmd.Value
				cell.Value = &v
			}
		case ItemQV:
			if fe.Event.Kind == nspc.EventDuration {
				if b, ok := fe.Event.Duration.QVByte(); ok {
					cell.Value = &b
				}
			}
		case ItemFX:
			if fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind != nspc.VcmdInst && fe.Event.Vcmd.Kind != nspc.VcmdVolume && fe.Event.Vcmd.Kind != nspc.VcmdSubroutineCall {
				cell.Effects = append(cell.Effects, fe.Event.Vcmd)
			}
		}
	}
	return cell
}
