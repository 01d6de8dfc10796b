package nspccompile

import "github.com/ntrak-go/nspccore/internal/nspc"

// SPC header field offsets (§6.1).
const (
	spcTitleOffset  = 0x2E
	spcTitleLen     = 32
	spcArtistOffset = 0xB1
	spcArtistLen    = 32
)

// SpcMetadata is the subset of header fields StampMetadata writes.
type SpcMetadata struct {
	Title  string
	Artist string
}

// StampMetadata writes title/artist into an SPC image's header fields at
// their fixed offsets (original_source NspcSpcExport.hpp), truncating or
// space-padding to fit. spc must be at least spcArtistOffset+spcArtistLen
// bytes long.
func StampMetadata(spc []byte, meta SpcMetadata) {
	writeField(spc, spcTitleOffset, spcTitleLen, meta.Title)
	writeField(spc, spcArtistOffset, spcArtistLen, meta.Artist)
}

func writeField(spc []byte, offset, length int, value string) {
	if offset+length > len(spc) {
		return
	}
	field := spc[offset : offset+length]
	for i := range field {
		field[i] = ' '
	}
	copy(field, value)
}

// EmulatorWarmup runs spc forward until it reaches a stable playback state
// and reports the resulting CPU/DSP register and port state to stamp into
// the header. This is an external collaborator (§4.5): the core has no
// emulator of its own.
type EmulatorWarmup func(spc []byte) (PlaybackState, error)

// PlaybackState is the post-warmup snapshot captured from the emulator.
type PlaybackState struct {
	PC, SP       uint16
	A, X, Y, PSW uint8
	DspRegisters [128]byte
	ExtraRAM     [64]byte
}

// ApplyPlaybackState stamps a captured PlaybackState into spc's header and
// DSP/extra-RAM regions (§6.1).
func ApplyPlaybackState(spc []byte, st PlaybackState) {
	if len(spc) < 0x10200 {
		return
	}
	spc[0x25], spc[0x26] = uint8(st.PC), uint8(st.PC>>8)
	spc[0x27] = st.A
	spc[0x28] = st.X
	spc[0x29] = st.Y
	spc[0x2A] = st.PSW
	spc[0x2B] = uint8(st.SP)
	copy(spc[0x10100:0x10180], st.DspRegisters[:])
	copy(spc[0x101C0:0x10200], st.ExtraRAM[:])
}

// BuildAutoPlaySpc composes a self-playing SPC: start from baseSpc, apply
// the user-content upload (if project has any user-owned content), apply
// the song-scoped upload, then run warmup and stamp the resulting playback
// state into the header (§4.5).
func BuildAutoPlaySpc(project *nspc.Project, songIndex int, baseSpc []byte, opts Options, warmup EmulatorWarmup) ([]byte, error) {
	out := append([]byte(nil), baseSpc...)

	if hasUserContent(project) {
		userUpload, err := BuildUserContentUpload(project, opts)
		if err != nil {
			return nil, err
		}
		out = ApplyUploadToSpcImage(userUpload, out)
	}

	songUpload, err := BuildSongScopedUpload(project, songIndex, opts)
	if err != nil {
		return nil, err
	}
	out = ApplyUploadToSpcImage(songUpload, out)

	if warmup != nil {
		st, err := warmup(out)
		if err != nil {
			return nil, err
		}
		ApplyPlaybackState(out, st)
	}
	return out, nil
}

func hasUserContent(project *nspc.Project) bool {
	for _, s := range project.Songs {
		if s.ContentOrigin == nspc.UserProvided {
			return true
		}
	}
	for _, i := range project.Instruments {
		if i.ContentOrigin == nspc.UserProvided {
			return true
		}
	}
	for _, smp := range project.Samples {
		if smp.ContentOrigin == nspc.UserProvided {
			return true
		}
	}
	return false
}
