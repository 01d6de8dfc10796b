package nspccompile

import "github.com/ntrak-go/nspccore/internal/nspc"

// seqOpLength returns the encoded byte length of one sequence op (§3.5,
// mirroring internal/nspcparser's decode: FastForward ops and EndSequence
// are one byte, Jump ops are opcode+2-byte target, PlayPattern is a 2-byte
// pointer into its pattern's header).
func seqOpLength(op nspc.SeqOp) int {
	switch op.Kind {
	case nspc.SeqOpPlayPattern:
		return 2
	case nspc.SeqOpJumpTimes, nspc.SeqOpAlwaysJump:
		return 3
	default:
		return 1
	}
}

// seqOffsets returns, for each op, its byte offset relative to the start of
// the encoded sequence stream.
func seqOffsets(ops []nspc.SeqOp) ([]int, int) {
	offsets := make([]int, len(ops))
	total := 0
	for i, op := range ops {
		offsets[i] = total
		total += seqOpLength(op)
	}
	return offsets, total
}

// encodeSequence renders a song's sequence to bytes. patternHeaderAddr maps
// a pattern ID to the ARAM address of its 2-byte pattern header (the
// address a PlayPattern pointer targets; the pattern's channel table
// follows two bytes later). seqBase is the final address assigned to this
// sequence, used to resolve SeqTargetIndex targets to absolute addresses.
func encodeSequence(ops []nspc.SeqOp, patternHeaderAddr map[int32]uint16, seqBase uint16, cfg *nspc.EngineConfig) []byte {
	offsets, _ := seqOffsets(ops)
	resolve := func(t nspc.SeqTarget) uint16 {
		if t.Kind == nspc.SeqTargetIndex && t.Index >= 0 && t.Index < len(offsets) {
			return seqBase + uint16(offsets[t.Index])
		}
		return t.Addr
	}

	var out []byte
	for _, op := range ops {
		switch op.Kind {
		case nspc.SeqOpPlayPattern:
			ptr := patternHeaderAddr[op.PatternID]
			out = append(out, uint8(ptr), uint8(ptr>>8))
		case nspc.SeqOpJumpTimes:
			target := resolve(op.Target)
			out = append(out, op.Count, uint8(target), uint8(target>>8))
		case nspc.SeqOpAlwaysJump:
			target := resolve(op.Target)
			out = append(out, op.Opcode, uint8(target), uint8(target>>8))
		case nspc.SeqOpFastForwardOn:
			out = append(out, cfg.FastForwardOnOpcode)
		case nspc.SeqOpFastForwardOff:
			out = append(out, cfg.FastForwardOffOpcode)
		case nspc.SeqOpEndSequence:
			out = append(out, 0x00)
		}
	}
	return out
}
