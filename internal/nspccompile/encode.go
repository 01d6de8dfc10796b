package nspccompile

import (
	"fmt"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

// subroutinePatch records a byte offset within an encoded stream that holds
// a little-endian subroutine address still to be resolved by the layout
// planner (§4.5 step 5).
type subroutinePatch struct {
	Offset       int
	SubroutineID int32
}

// encodeEventStream renders one track/subroutine's events to bytes per
// §4.5 step 3, returning the byte-offsets of any SubroutineCall operands
// that need patching once addresses are known.
func encodeEventStream(events []nspc.Entry, cfg *nspc.EngineConfig) ([]byte, []subroutinePatch, []string, error) {
	var out []byte
	var patches []subroutinePatch
	var warnings []string

	for _, e := range events {
		switch e.Event.Kind {
		case nspc.EventDuration:
			d := e.Event.Duration
			out = append(out, d.Ticks)
			if qv, present := d.QVByte(); present {
				out = append(out, qv)
			}
		case nspc.EventNote:
			out = append(out, 0x80+e.Event.Note.Pitch)
		case nspc.EventTie:
			out = append(out, 0xC8)
		case nspc.EventRest:
			out = append(out, 0xC9)
		case nspc.EventPercussion:
			out = append(out, 0xCA+e.Event.Percussion.Index)
		case nspc.EventVcmd:
			b, ps, err := encodeVcmd(out, e.Event.Vcmd, cfg)
			if err != nil {
				return nil, nil, warnings, err
			}
			out = b
			patches = append(patches, ps...)
		case nspc.EventEnd:
			out = append(out, 0x00)
		case nspc.EventSubroutineMarker:
			// transient decode-only marker; never encoded.
		}
	}
	if len(events) == 0 {
		warnings = append(warnings, "empty event stream encoded")
	}
	return out, patches, warnings, nil
}

// encodeVcmd appends kind's opcode and param bytes to out, returning any
// subroutine-call patch site (offset relative to the full stream being
// built, hence the len(out) base passed in via out itself).
func encodeVcmd(out []byte, v nspc.Vcmd, cfg *nspc.EngineConfig) ([]byte, []subroutinePatch, error) {
	if v.Kind == nspc.VcmdExtension {
		out = append(out, cfg.ExtensionVcmdPrefix, v.ExtID)
		out = append(out, v.ExtParams[:v.ExtParamCount]...)
		return out, nil, nil
	}

	opcode := cfg.EngineOpcodeFor(v.Kind)
	if cfg.Strict {
		if _, ok := cfg.KindForOpcode(opcode); !ok {
			return nil, nil, errUnmappedVcmd(fmt.Sprintf("vcmd kind %d", v.Kind))
		}
	}
	out = append(out, opcode)

	if v.Kind == nspc.VcmdSubroutineCall {
		patchOffset := len(out)
		out = append(out, 0x00, 0x00, v.Count)
		return out, []subroutinePatch{{Offset: patchOffset, SubroutineID: v.SubroutineID}}, nil
	}

	out = append(out, vcmdParamBytes(v)...)
	return out, nil, nil
}

// vcmdParamBytes returns the fixed parameter bytes for non-extension,
// non-SubroutineCall VCMD kinds, per their field groupings in nspc.Vcmd.
func vcmdParamBytes(v nspc.Vcmd) []byte {
	switch v.Kind {
	case nspc.VcmdInst, nspc.VcmdPanning, nspc.VcmdGlobalVolume, nspc.VcmdTempo,
		nspc.VcmdGlobalTranspose, nspc.VcmdPerVoiceTranspose, nspc.VcmdVolume,
		nspc.VcmdVibratoFadeIn, nspc.VcmdFineTune, nspc.VcmdPercussionBaseInstrument:
		return []byte{v.Value}
	case nspc.VcmdPanFade, nspc.VcmdGlobalVolumeFade, nspc.VcmdTempoFade, nspc.VcmdVolumeFade:
		return []byte{v.Time, v.Target}
	case nspc.VcmdVibratoOn, nspc.VcmdTremoloOn:
		return []byte{v.Delay, v.Rate, v.Depth}
	case nspc.VcmdPitchEnvelopeTo, nspc.VcmdPitchEnvelopeFrom:
		return []byte{v.Delay, v.Length, v.Semitone}
	case nspc.VcmdPitchSlideToNote:
		return []byte{v.Delay, v.Length, v.Semitone}
	case nspc.VcmdEchoOn:
		return []byte{v.EchoChannels, v.EchoLeft, v.EchoRight}
	case nspc.VcmdEchoParams:
		return []byte{v.Delay, v.Feedback, v.FirIndex}
	case nspc.VcmdEchoVolumeFade:
		return []byte{v.Time, v.Target, v.Target2}
	case nspc.VcmdNOP:
		return []byte{uint8(v.NOPBytes), uint8(v.NOPBytes >> 8)}
	default:
		// VibratoOff, TremoloOff, PitchEnvelopeOff, EchoOff, MuteChannel,
		// FastForwardOn/Off carry no parameter bytes.
		return nil
	}
}
