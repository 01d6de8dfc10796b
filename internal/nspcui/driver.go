// Package nspcui implements the pattern editor UI driver (§4.8): the
// stateful cursor/selection/clipboard/keyboard logic that bridges the
// editor to a host UI. It also renders the grid (render.go) into a
// scrolling viewport whose frame a host can display.
package nspcui

import (
	"log"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspceditor"
	"github.com/ntrak-go/nspccore/internal/nspcflatten"
	"github.com/ntrak-go/nspccore/internal/nspchistory"
)

// DefaultViewportRows matches nspceditor.DefaultVisibleRows: the grid shows
// this many pattern rows at once before the viewport has to scroll.
const DefaultViewportRows = nspceditor.DefaultVisibleRows

// Item names the editable column under the cursor within one channel cell.
type Item int

const (
	ItemNote Item = iota
	ItemInst
	ItemVol
	ItemQV
	ItemFX
)

// Cursor is the driver's current edit position.
type Cursor struct {
	Row     uint32
	Channel int
	Item    Item
}

// cellKey addresses one cell in the per-cell selection bitmap.
type cellKey struct {
	row     uint32
	channel int
	item    Item
}

// ClipboardCell is one copied cell: the row event it came from (if any) plus
// the raw byte values of its value columns, mirroring the teacher's
// ClipboardData shape (value + cell type + highlight source).
type ClipboardCell struct {
	Channel int
	Item    Item
	RowEvent *nspc.Event // nil if the cell held no anchor (a continuation row)
	Value    *uint8      // Inst/Vol/QV byte value, if applicable
	Effects  []nspc.Vcmd
}

// Driver owns cursor, selection, clipboard, and hex-input-accumulator state
// for one pattern being edited, and drives Commands through an
// *nspchistory.History against the underlying song (§4.8, §5).
type Driver struct {
	Song      *nspc.Song
	PatternID int32
	History   *nspchistory.History

	Cursor    Cursor
	Selection map[cellKey]bool
	Clipboard []ClipboardCell

	// hexAccum is the typed hex input accumulator for the Inst/Vol/QV
	// columns: successive hex-digit keypresses append here until the column
	// is committed or the cursor moves. Hex digits typed in the FX column
	// are ignored.
	hexAccum string

	flatCache   *nspcflatten.FlatPattern
	flatOptions nspcflatten.Options
	flatDirty   bool

	// Viewport scrolls the rendered grid when the pattern has more rows
	// than fit on screen; Render scrolls it just far enough to keep
	// Cursor.Row visible.
	Viewport viewport.Model
	styles   *Styles
}

// NewDriver creates a driver over song, initially positioned at the start
// of patternID.
func NewDriver(song *nspc.Song, patternID int32, history *nspchistory.History) *Driver {
	vp := viewport.New(0, DefaultViewportRows)
	return &Driver{
		Song:        song,
		PatternID:   patternID,
		History:     history,
		Selection:   make(map[cellKey]bool),
		flatOptions: nspcflatten.DefaultOptions(),
		flatDirty:   true,
		Viewport:    vp,
		styles:      NewStyles(),
	}
}

// Render reflattens if needed, repaints the grid into the viewport, scrolls
// the viewport to keep Cursor.Row visible, and returns the visible frame.
func (d *Driver) Render() string {
	d.Viewport.SetContent(d.View(d.styles, 0, DefaultViewportRows))
	cursorLine := int(d.Cursor.Row) + 1 // +1 for the header row View() writes
	if cursorLine < d.Viewport.YOffset {
		d.Viewport.SetYOffset(cursorLine)
	} else if cursorLine >= d.Viewport.YOffset+d.Viewport.Height {
		d.Viewport.SetYOffset(cursorLine - d.Viewport.Height + 1)
	}
	return d.Viewport.View()
}

// FlatPattern returns the cached flattened pattern, reflattening if the
// underlying song changed since the last call (§4.2 "flatten idempotence").
func (d *Driver) FlatPattern() (*nspcflatten.FlatPattern, error) {
	if d.flatDirty || d.flatCache == nil {
		fp, err := nspcflatten.Flatten(d.Song, d.PatternID, d.flatOptions)
		if err != nil {
			return nil, err
		}
		d.flatCache = fp
		d.flatDirty = false
	}
	return d.flatCache, nil
}

func (d *Driver) invalidate() { d.flatDirty = true }

// Resize adjusts the viewport to a host's reported terminal size, in
// response to tea.WindowSizeMsg.
func (d *Driver) Resize(width, height int) {
	d.Viewport.Width = width
	d.Viewport.Height = height
}

func (d *Driver) location() nspceditor.Location {
	return nspceditor.Location{PatternID: d.PatternID, Channel: d.Cursor.Channel, Row: d.Cursor.Row}
}

// do wraps an editor mutation in an undoable command and discards it
// silently if the editor reports no change, per §5 "Cancellation
// semantics" and §7 "editor no-op".
func (d *Driver) do(desc string, mutate func(*nspc.Song) bool) bool {
	cmd := nspchistory.NewEditCommand(desc, mutate)
	applied := d.History.Do(d.Song, cmd)
	if applied {
		d.invalidate()
	}
	return applied
}

// HandleKey translates one keyboard event into editor calls wrapped in
// commands, mirroring the teacher's HandleKeyInput dispatch idiom.
func (d *Driver) HandleKey(msg tea.KeyMsg) tea.Cmd {
	log.Printf("nspcui: key %s at row=%d channel=%d item=%v", msg.String(), d.Cursor.Row, d.Cursor.Channel, d.Cursor.Item)
	switch msg.String() {
	case "up":
		d.moveRow(-1)
	case "down":
		d.moveRow(1)
	case "left":
		d.moveChannelOrItem(-1)
	case "right":
		d.moveChannelOrItem(1)
	case "shift+up", "shift+down", "shift+left", "shift+right":
		d.extendSelection(msg.String())
	case "ctrl+c", "alt+c":
		d.CopySelection()
	case "ctrl+x", "alt+x":
		d.CutSelection()
	case "ctrl+v", "alt+v":
		d.PasteAtCursor()
	case "delete", "backspace":
		d.DeleteAtCursor()
	case "insert":
		d.InsertTickAtCursor()
	case "ctrl+delete", "alt+delete":
		d.RemoveTickAtCursor()
	case "ctrl+up", "alt+up":
		d.TransposeSelection(1)
	case "ctrl+down", "alt+down":
		d.TransposeSelection(-1)
	case "ctrl+shift+up", "alt+shift+up":
		d.TransposeSelection(12)
	case "ctrl+shift+down", "alt+shift+down":
		d.TransposeSelection(-12)
	case "ctrl+z", "alt+z":
		if d.History.Undo(d.Song) {
			d.invalidate()
		}
	case "ctrl+y", "alt+y":
		if d.History.Redo(d.Song) {
			d.invalidate()
		}
	case "esc":
		d.ClearSelection()
		d.hexAccum = ""
	default:
		d.typeHexDigit(msg.String())
	}
	return nil
}

func (d *Driver) moveRow(delta int) {
	r := int64(d.Cursor.Row) + int64(delta)
	if r < 0 {
		r = 0
	}
	d.Cursor.Row = uint32(r)
	d.hexAccum = ""
}

func (d *Driver) moveChannelOrItem(delta int) {
	i := int(d.Cursor.Item) + delta
	if i < 0 {
		d.Cursor.Item = ItemFX
		if d.Cursor.Channel > 0 {
			d.Cursor.Channel--
		}
	} else if i > int(ItemFX) {
		d.Cursor.Item = ItemNote
		if d.Cursor.Channel < 7 {
			d.Cursor.Channel++
		}
	} else {
		d.Cursor.Item = Item(i)
	}
	d.hexAccum = ""
}

func (d *Driver) extendSelection(dir string) {
	d.Selection[cellKey{d.Cursor.Row, d.Cursor.Channel, d.Cursor.Item}] = true
	switch dir {
	case "shift+up":
		d.moveRow(-1)
	case "shift+down":
		d.moveRow(1)
	case "shift+left":
		d.moveChannelOrItem(-1)
	case "shift+right":
		d.moveChannelOrItem(1)
	}
	d.Selection[cellKey{d.Cursor.Row, d.Cursor.Channel, d.Cursor.Item}] = true
}

// ClearSelection drops the current per-cell selection bitmap.
func (d *Driver) ClearSelection() {
	d.Selection = make(map[cellKey]bool)
}
