package projectfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

// eventpack_v1 is this project's own fixed-tag binary encoding of an event
// stream, distinct from the compiler's SPC wire format: it preserves
// SubroutineID directly (no ARAM address resolution) so tracks and
// subroutines round-trip through a saved project file byte-for-byte.
const eventpackVersion = "eventpack_v1"

func packEvents(events []nspc.Entry) []byte {
	var buf bytes.Buffer
	for _, e := range events {
		if e.Event.Kind == nspc.EventSubroutineMarker {
			continue
		}
		buf.WriteByte(byte(e.Event.Kind))
		binary.Write(&buf, binary.BigEndian, uint64(e.ID))
		switch e.Event.Kind {
		case nspc.EventDuration:
			d := e.Event.Duration
			buf.WriteByte(d.Ticks)
			writeOptByte(&buf, d.Quant)
			writeOptByte(&buf, d.Velocity)
		case nspc.EventNote:
			buf.WriteByte(e.Event.Note.Pitch)
		case nspc.EventPercussion:
			buf.WriteByte(e.Event.Percussion.Index)
		case nspc.EventVcmd:
			binary.Write(&buf, binary.BigEndian, e.Event.Vcmd)
		case nspc.EventTie, nspc.EventRest, nspc.EventEnd:
			// no payload
		case nspc.EventSubroutineMarker:
			// transient; never packed
		}
	}
	return buf.Bytes()
}

func writeOptByte(buf *bytes.Buffer, v *uint8) {
	if v == nil {
		buf.WriteByte(0)
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	buf.WriteByte(*v)
}

func readOptByte(r *bytes.Reader) (*uint8, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	val, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	v := val
	return &v, nil
}

func unpackEvents(data []byte) ([]nspc.Entry, error) {
	r := bytes.NewReader(data)
	var out []nspc.Entry
	for r.Len() > 0 {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading event kind: %v", ErrSchema, err)
		}
		var id uint64
		if err := binary.Read(r, binary.BigEndian, &id); err != nil {
			return nil, fmt.Errorf("%w: reading event id: %v", ErrSchema, err)
		}
		ev := nspc.Event{Kind: nspc.EventKind(kindByte)}
		switch ev.Kind {
		case nspc.EventDuration:
			ticks, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: reading duration: %v", ErrSchema, err)
			}
			quant, err := readOptByte(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading quant: %v", ErrSchema, err)
			}
			velocity, err := readOptByte(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading velocity: %v", ErrSchema, err)
			}
			ev.Duration = nspc.Duration{Ticks: ticks, Quant: quant, Velocity: velocity}
		case nspc.EventNote:
			pitch, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: reading note: %v", ErrSchema, err)
			}
			ev.Note = nspc.Note{Pitch: pitch}
		case nspc.EventPercussion:
			idx, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: reading percussion: %v", ErrSchema, err)
			}
			ev.Percussion = nspc.Percussion{Index: idx}
		case nspc.EventVcmd:
			var v nspc.Vcmd
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, fmt.Errorf("%w: reading vcmd: %v", ErrSchema, err)
			}
			ev.Vcmd = v
		case nspc.EventTie, nspc.EventRest, nspc.EventEnd:
			// no payload
		default:
			return nil, fmt.Errorf("%w: unknown event kind %d", ErrSchema, kindByte)
		}
		out = append(out, nspc.Entry{ID: nspc.EventID(id), Event: ev})
	}
	return out, nil
}
