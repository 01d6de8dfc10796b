// Package nspcparser decodes an SPC-700 ARAM image under an engine config
// into an in-memory nspc.Project (§4.1).
package nspcparser

import (
	"bytes"
	"fmt"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

// SpcHeaderMagic is the literal string an SPC file begins with.
const SpcHeaderMagic = "SNES-SPC700 Sound File Data"

const (
	aramOffset       = 0x100
	aramSize         = 0x10000
	dspOffset        = 0x10100
	extraRamOffset   = 0x101C0
	headerTotalSize  = 0x10200
)

// ErrorKind classifies a parse failure (§4.1 "Failure kinds").
type ErrorKind int

const (
	ErrInvalidConfig ErrorKind = iota
	ErrInvalidHeader
	ErrUnsupportedVersion
	ErrUnexpectedEndOfData
	ErrInvalidEventData
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrInvalidHeader:
		return "InvalidHeader"
	case ErrUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrUnexpectedEndOfData:
		return "UnexpectedEndOfData"
	case ErrInvalidEventData:
		return "InvalidEventData"
	default:
		return "Unknown"
	}
}

// ParseError is the typed failure returned by Parse.
type ParseError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("nspc parse: %s: %s", e.Kind, e.Msg) }

func fail(kind ErrorKind, format string, args ...any) error {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// maxSongProbe bounds how many song-index-table slots Parse will probe; the
// real table length is engine-defined and typically much smaller, but we
// stop early at the first zero entry run.
const maxSongProbe = 256

// Parse decodes buf (an SPC-700 file image) into a project bound to the
// first config in configs whose engine signature matches ARAM at its entry
// point, in discovery order (ties are broken by taking the first match —
// an explicitly unspecified choice per spec §9 "Open questions").
func Parse(buf []byte, configs []*nspc.EngineConfig) (*nspc.Project, error) {
	if len(configs) == 0 {
		return nil, fail(ErrInvalidConfig, "no engine configs supplied")
	}
	if len(buf) < headerTotalSize {
		return nil, fail(ErrUnexpectedEndOfData, "buffer is %d bytes, need %d", len(buf), headerTotalSize)
	}
	if !bytes.HasPrefix(buf, []byte(SpcHeaderMagic)) {
		return nil, fail(ErrInvalidHeader, "missing SPC header magic")
	}

	var aram [aramSize]byte
	copy(aram[:], buf[aramOffset:aramOffset+aramSize])

	var cfg *nspc.EngineConfig
	for _, c := range configs {
		if matchesSignature(aram[:], c) {
			cfg = c
			break
		}
	}
	if cfg == nil {
		return nil, fail(ErrUnsupportedVersion, "no engine signature matched")
	}

	proj := nspc.NewEmptyProject(cfg)
	proj.Aram = aram
	proj.SourceSpcData = append([]byte(nil), buf...)

	p := &parser{aram: aram, cfg: cfg}
	songIDs, err := p.discoverSongIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range songIDs {
		song, err := p.parseSong(id)
		if err != nil {
			return nil, err
		}
		proj.Songs = append(proj.Songs, song)
	}

	renumberAcrossProject(proj)
	proj.ClassifyOrigins()
	return proj, nil
}

func matchesSignature(aram []byte, cfg *nspc.EngineConfig) bool {
	end := int(cfg.EntryPoint) + len(cfg.Bytes)
	if end > len(aram) {
		return false
	}
	return bytes.Equal(aram[cfg.EntryPoint:end], cfg.Bytes)
}

type parser struct {
	aram [aramSize]byte
	cfg  *nspc.EngineConfig

	nextTrackID      int32
	nextSubroutineID int32
	nextPatternID    int32

	trackAddrToID      map[uint16]int32
	subroutineAddrToID map[uint16]int32
}

func (p *parser) u16(addr uint16) uint16 {
	return uint16(p.aram[addr]) | uint16(p.aram[addr+1])<<8
}

// discoverSongIDs walks the song index table starting at index 0 until it
// finds five consecutive zero pointers or has probed maxSongProbe slots, a
// conservative stand-in for an engine-specific song count (not specified by
// the core spec).
func (p *parser) discoverSongIDs() ([]int32, error) {
	var ids []int32
	zeros := 0
	for i := 0; i < maxSongProbe; i++ {
		addr := p.cfg.SongIndexPointers + uint16(i*2)
		if int(addr)+1 >= len(p.aram) {
			break
		}
		ptr := p.u16(addr)
		if ptr == 0 {
			zeros++
			if zeros > 4 {
				break
			}
			continue
		}
		zeros = 0
		ids = append(ids, int32(i))
	}
	return ids, nil
}

func (p *parser) parseSong(songID int32) (*nspc.Song, error) {
	song := nspc.NewEmptySong(songID)
	song.ContentOrigin = nspc.EngineProvided
	p.nextTrackID, p.nextSubroutineID, p.nextPatternID = 0, 0, 0
	p.trackAddrToID = map[uint16]int32{}
	p.subroutineAddrToID = map[uint16]int32{}

	headAddr := p.u16(p.cfg.SongIndexPointers + uint16(songID*2))
	seq, err := p.parseSequence(song, headAddr)
	if err != nil {
		return nil, err
	}
	song.Sequence = seq
	return song, nil
}

// parseSequence decodes sequence ops starting at addr (§4.1 step 2). Once
// the sequence is decoded, a jump target that lands on the start of a
// decoded op is rewritten to that op's sequence index.
func (p *parser) parseSequence(song *nspc.Song, addr uint16) ([]nspc.SeqOp, error) {
	var ops []nspc.SeqOp
	seen := map[uint16]bool{}
	opIndex := map[uint16]int{}
decode:
	for {
		if seen[addr] {
			// Loop back to a visited address: stop decoding (avoids an
			// infinite decode loop).
			break
		}
		seen[addr] = true
		opIndex[addr] = len(ops)
		b := p.aram[addr]

		switch {
		case b == 0x00:
			ops = append(ops, nspc.SeqOp{Kind: nspc.SeqOpEndSequence})
			break decode
		case p.cfg.FastForwardOnOpcode != 0 && b == p.cfg.FastForwardOnOpcode:
			ops = append(ops, nspc.SeqOp{Kind: nspc.SeqOpFastForwardOn})
			addr++
		case p.cfg.FastForwardOffOpcode != 0 && b == p.cfg.FastForwardOffOpcode:
			ops = append(ops, nspc.SeqOp{Kind: nspc.SeqOpFastForwardOff})
			addr++
		case b >= 0x01 && b <= 0x7F:
			target := p.u16(addr + 1)
			ops = append(ops, nspc.SeqOp{Kind: nspc.SeqOpJumpTimes, Count: b, Target: p.resolveTarget(target, ops)})
			addr += 3
		case b >= 0x82 && b <= 0xFF:
			target := p.u16(addr + 1)
			ops = append(ops, nspc.SeqOp{Kind: nspc.SeqOpAlwaysJump, Opcode: b, Target: p.resolveTarget(target, ops)})
			addr += 3
		default:
			// Pointer to a pattern whose 8x2-byte track table starts two
			// bytes past it: PlayPattern.
			ptr := p.u16(addr)
			patternID := p.nextPatternID
			p.nextPatternID++
			pattern, err := p.parsePattern(song, ptr+2, patternID)
			if err != nil {
				return nil, err
			}
			song.Patterns = append(song.Patterns, *pattern)
			ops = append(ops, nspc.SeqOp{Kind: nspc.SeqOpPlayPattern, PatternID: patternID, TrackTableAddr: ptr + 2})
			addr += 2
		}
	}
	for i := range ops {
		k := ops[i].Kind
		if (k == nspc.SeqOpJumpTimes || k == nspc.SeqOpAlwaysJump) && ops[i].Target.Kind == nspc.SeqTargetAddr {
			if idx, ok := opIndex[ops[i].Target.Addr]; ok {
				ops[i].Target = nspc.SeqTarget{Kind: nspc.SeqTargetIndex, Index: idx}
			}
		}
	}
	return ops, nil
}

func (p *parser) resolveTarget(addr uint16, priorOps []nspc.SeqOp) nspc.SeqTarget {
	// A target is recorded as an absolute address while decoding;
	// parseSequence rewrites it to a sequence index afterwards when it lands
	// exactly on the start of a decoded op.
	return nspc.SeqTarget{Kind: nspc.SeqTargetAddr, Addr: addr}
}

// parsePattern reads an 8x2-byte track table at trackTableAddr and parses
// every non-zero track entry.
func (p *parser) parsePattern(song *nspc.Song, trackTableAddr uint16, patternID int32) (*nspc.Pattern, error) {
	var ids [8]int32
	any := false
	for c := 0; c < 8; c++ {
		entryAddr := trackTableAddr + uint16(c*2)
		ptr := p.u16(entryAddr)
		if ptr == 0 {
			ids[c] = -1
			continue
		}
		any = true
		trackID, err := p.parseTrackOnce(song, ptr)
		if err != nil {
			return nil, err
		}
		ids[c] = trackID
	}
	pat := &nspc.Pattern{ID: patternID, TrackTableAddr: trackTableAddr}
	if any {
		pat.ChannelTrackIDs = &ids
	}
	return pat, nil
}

func (p *parser) parseTrackOnce(song *nspc.Song, addr uint16) (int32, error) {
	if id, ok := p.trackAddrToID[addr]; ok {
		return id, nil
	}
	id := p.nextTrackID
	p.nextTrackID++
	p.trackAddrToID[addr] = id

	events, err := p.parseEventsGuarded(song, addr, map[uint16]bool{})
	if err != nil {
		return 0, err
	}
	song.Tracks = append(song.Tracks, nspc.Track{ID: id, Events: events, OriginalAddr: addr})
	return id, nil
}

func (p *parser) parseSubroutineOnce(song *nspc.Song, addr uint16, callStack map[uint16]bool) (int32, error) {
	if callStack[addr] {
		return 0, fail(ErrInvalidEventData, "recursive subroutine call at %#04x", addr)
	}
	if id, ok := p.subroutineAddrToID[addr]; ok {
		return id, nil
	}
	id := p.nextSubroutineID
	p.nextSubroutineID++
	p.subroutineAddrToID[addr] = id

	callStack[addr] = true
	events, err := p.parseEventsGuarded(song, addr, callStack)
	delete(callStack, addr)
	if err != nil {
		return 0, err
	}
	song.Subroutines = append(song.Subroutines, nspc.Subroutine{ID: id, Events: events, OriginalAddr: addr})
	return id, nil
}

// parseEventsGuarded decodes a stream until End (0x00) and threads
// callStack into any subroutine calls it encounters, so recursion is
// rejected outright per §3.7 ("parser rejects").
func (p *parser) parseEventsGuarded(song *nspc.Song, addr uint16, callStack map[uint16]bool) ([]nspc.Entry, error) {
	var entries []nspc.Entry
	for {
		if int(addr) >= len(p.aram) {
			return nil, fail(ErrUnexpectedEndOfData, "event stream ran off the end of ARAM")
		}
		origAddr := addr
		b := p.aram[addr]
		switch {
		case b == 0x00:
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventEnd}, OriginalAddr: ptrU16(origAddr)})
			return entries, nil
		case b >= 0x01 && b <= 0x7F:
			d := nspc.Duration{Ticks: b}
			addr++
			// A duration byte is immediately followed by at most one QV
			// byte from the same [0x01, 0x7F] range; real N-SPC streams
			// never emit two bare Durations back to back; between one
			// Duration and the next lies at least one tick-consuming event
			// or VCMD, so any in-range follower here is the QV byte.
			if addr < uint16(len(p.aram)) && p.aram[addr] >= 0x01 && p.aram[addr] <= 0x7F {
				qv := p.aram[addr]
				q := (qv >> 4) & 0x07
				v := qv & 0x0F
				d.Quant = &q
				d.Velocity = &v
				addr++
			}
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventDuration, Duration: d}, OriginalAddr: ptrU16(origAddr)})
		case b >= 0x80 && b <= 0xC7:
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: b - 0x80}}, OriginalAddr: ptrU16(origAddr)})
			addr++
		case b == 0xC8:
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventTie}, OriginalAddr: ptrU16(origAddr)})
			addr++
		case b == 0xC9:
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventRest}, OriginalAddr: ptrU16(origAddr)})
			addr++
		case b >= 0xCA && b <= 0xDF:
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventPercussion, Percussion: nspc.Percussion{Index: b - 0xCA}}, OriginalAddr: ptrU16(origAddr)})
			addr++
		default: // 0xE0-0xFF: VCMD
			vcmd, newAddr, err := p.parseVcmd(song, addr, callStack)
			if err != nil {
				return nil, err
			}
			entries = append(entries, nspc.Entry{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventVcmd, Vcmd: vcmd}, OriginalAddr: ptrU16(origAddr)})
			addr = newAddr
		}
	}
}

func ptrU16(v uint16) *uint16 { return &v }

func (p *parser) parseVcmd(song *nspc.Song, addr uint16, callStack map[uint16]bool) (nspc.Vcmd, uint16, error) {
	opcode := p.aram[addr]
	addr++

	if p.cfg.ExtensionVcmdPrefix != 0 && opcode == p.cfg.ExtensionVcmdPrefix {
		if int(addr) >= len(p.aram) {
			return nspc.Vcmd{}, 0, fail(ErrUnexpectedEndOfData, "truncated extension vcmd")
		}
		extID := p.aram[addr]
		addr++
		var count uint8
		for _, ext := range p.cfg.ExtensionVcmds {
			if ext.ID == extID {
				count = ext.ParamCount
				break
			}
		}
		var params [4]uint8
		for i := uint8(0); i < count && i < 4; i++ {
			params[i] = p.aram[addr]
			addr++
		}
		return nspc.Vcmd{Kind: nspc.VcmdExtension, ExtID: extID, ExtParams: params, ExtParamCount: count}, addr, nil
	}

	kind, ok := p.cfg.KindForOpcode(opcode)
	if !ok {
		return nspc.Vcmd{}, 0, fail(ErrInvalidEventData, "unmapped vcmd opcode %#02x in strict engine", opcode)
	}

	v := nspc.Vcmd{Kind: kind}
	readN := func(n int) []byte {
		b := p.aram[addr : addr+uint16(n)]
		addr += uint16(n)
		return b
	}

	switch kind {
	case nspc.VcmdInst, nspc.VcmdPanning, nspc.VcmdGlobalVolume, nspc.VcmdTempo, nspc.VcmdGlobalTranspose,
		nspc.VcmdPerVoiceTranspose, nspc.VcmdVolume, nspc.VcmdVibratoFadeIn, nspc.VcmdFineTune,
		nspc.VcmdPercussionBaseInstrument:
		b := readN(1)
		v.Value = b[0]
	case nspc.VcmdPanFade, nspc.VcmdGlobalVolumeFade, nspc.VcmdTempoFade, nspc.VcmdVolumeFade:
		b := readN(2)
		v.Time, v.Target = b[0], b[1]
	case nspc.VcmdVibratoOn, nspc.VcmdTremoloOn:
		b := readN(3)
		v.Delay, v.Rate, v.Depth = b[0], b[1], b[2]
	case nspc.VcmdVibratoOff, nspc.VcmdTremoloOff, nspc.VcmdPitchEnvelopeOff, nspc.VcmdEchoOff, nspc.VcmdMuteChannel,
		nspc.VcmdFastForwardOn, nspc.VcmdFastForwardOff:
		// no params
	case nspc.VcmdSubroutineCall:
		b := readN(3)
		target := uint16(b[0]) | uint16(b[1])<<8
		count := b[2]
		subID, err := p.parseSubroutineOnce(song, target, callStack)
		if err != nil {
			return nspc.Vcmd{}, 0, err
		}
		v.SubroutineID = subID
		v.OriginalAddr = target
		v.Count = count
	case nspc.VcmdPitchEnvelopeTo, nspc.VcmdPitchEnvelopeFrom, nspc.VcmdPitchSlideToNote:
		b := readN(3)
		v.Delay, v.Length, v.Semitone = b[0], b[1], b[2]
	case nspc.VcmdEchoOn:
		b := readN(3)
		v.EchoChannels, v.EchoLeft, v.EchoRight = b[0], b[1], b[2]
	case nspc.VcmdEchoParams:
		b := readN(3)
		v.Delay, v.Feedback, v.FirIndex = b[0], b[1], b[2]
	case nspc.VcmdEchoVolumeFade:
		b := readN(3)
		v.Time, v.Target, v.Target2 = b[0], b[1], b[2]
	case nspc.VcmdNOP:
		b := readN(2)
		v.NOPBytes = uint16(b[0]) | uint16(b[1])<<8
	default:
		return nspc.Vcmd{}, 0, fail(ErrInvalidEventData, "unhandled vcmd kind %d", kind)
	}
	return v, addr, nil
}

// renumberAcrossProject densely renumbers tracks/subroutines within every
// parsed song (§4.1 step 6). IDs are handed out as owners are first met,
// but a nested subroutine is appended to the slice before its caller, so
// Renumber brings IDs back in line with slice order.
func renumberAcrossProject(proj *nspc.Project) {
	for _, s := range proj.Songs {
		s.Renumber()
	}
}
