package nspcui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func TestViewRendersNoteAtCursorRow(t *testing.T) {
	d := newTestDriver()
	assert.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}))

	out := d.View(NewStyles(), 0, 4)
	lines := strings.Split(out, "\n")
	assert.True(t, len(lines) >= 2)
	assert.Contains(t, lines[1], "30")
}

func TestRenderScrollsViewportToCursor(t *testing.T) {
	d := newTestDriver()
	d.Resize(80, 8)
	d.Cursor.Row = 50

	out := d.Render()
	assert.NotEmpty(t, out)
	assert.True(t, d.Viewport.YOffset > 0)
}
