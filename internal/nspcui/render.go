package nspcui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspcflatten"
)

// Styles holds the lipgloss styles used to paint the pattern grid. Grounded
// on the teacher's ViewStyles: one struct of named styles built once and
// reused across every cell, rather than constructing lipgloss.Style inline
// per cell.
type Styles struct {
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Label    lipgloss.Style
	Empty    lipgloss.Style
	Copied   lipgloss.Style
	Channel  [8]lipgloss.Style
}

// NewStyles derives per-channel hues from go-colorful so channels stay
// distinguishable even on a restricted ANSI palette, and asks termenv which
// color profile the terminal actually supports before handing out styles.
func NewStyles() *Styles {
	profile := termenv.ColorProfile()
	s := &Styles{
		Selected: lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0")),
		Normal:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Empty:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Copied:   lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0")),
	}
	for ch := 0; ch < 8; ch++ {
		hue := float64(ch) * (360.0 / 8.0)
		c := colorful.Hsv(hue, 0.55, 0.95)
		hex := c.Hex()
		if profile == termenv.Ascii {
			hex = "15"
		}
		s.Channel[ch] = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	return s
}

// View renders visibleRows of the pattern starting at scrollOffset, one line
// per row, one "NN II VV QV FX" column group per channel.
func (d *Driver) View(styles *Styles, scrollOffset, visibleRows int) string {
	fp, err := d.FlatPattern()
	if err != nil {
		return styles.Label.Render(fmt.Sprintf("flatten error: %v", err))
	}

	var out strings.Builder
	var header strings.Builder
	for ch := 0; ch < 8; ch++ {
		header.WriteString(styles.Label.Render(fmt.Sprintf("CH%d NN II VV QV FX ", ch)))
	}
	out.WriteString(header.String())
	out.WriteString("\n")

	for i := 0; i < visibleRows; i++ {
		row := uint32(scrollOffset + i)
		for ch := 0; ch < 8; ch++ {
			out.WriteString(d.renderRowChannel(styles, fp.Channels[ch], row, ch))
		}
		out.WriteString("\n")
	}
	return out.String()
}

func (d *Driver) renderRowChannel(styles *Styles, fc nspcflatten.FlatChannel, row uint32, channel int) string {
	cells := [5]string{"--", "--", "--", "--", "--"}
	for _, fe := range fc.Events {
		if fe.Tick != row {
			continue
		}
		switch {
		case fe.Event.IsTickConsuming():
			cells[0] = noteCellText(fe.Event)
		case fe.Event.Kind == nspc.EventDuration:
			if b, ok := fe.Event.Duration.QVByte(); ok {
				cells[3] = fmt.Sprintf("%02X", b)
			}
		case fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind == nspc.VcmdInst:
			cells[1] = fmt.Sprintf("%02X", fe.Event.Vcmd.Value)
		case fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind == nspc.VcmdVolume:
			cells[2] = fmt.Sprintf("%02X", fe.Event.Vcmd.Value)
		case fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind != nspc.VcmdSubroutineCall:
			cells[4] = fmt.Sprintf("%02X", fe.Event.Vcmd.Kind)
		}
	}
	if d.Cursor.Row == row && d.Cursor.Channel == channel {
		cell := cells[cellIndex(d.Cursor.Item)]
		return styles.Selected.Render(fmt.Sprintf("%-2s", cell)) + " "
	}
	if cells[0] == "--" && cells[1] == "--" && cells[2] == "--" {
		return styles.Empty.Render("-- -- -- -- --") + " "
	}
	return styles.Channel[channel].Render(fmt.Sprintf("%-2s %-2s %-2s %-2s %-2s", cells[0], cells[1], cells[2], cells[3], cells[4])) + " "
}

func cellIndex(item Item) int {
	switch item {
	case ItemNote:
		return 0
	case ItemInst:
		return 1
	case ItemVol:
		return 2
	case ItemQV:
		return 3
	default:
		return 4
	}
}

func noteCellText(ev nspc.Event) string {
	switch ev.Kind {
	case nspc.EventNote:
		return fmt.Sprintf("%02X", ev.Note.Pitch)
	case nspc.EventTie:
		return "^^"
	case nspc.EventRest:
		return ".."
	case nspc.EventPercussion:
		return fmt.Sprintf("P%X", ev.Percussion.Index)
	default:
		return "--"
	}
}
