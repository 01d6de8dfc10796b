package nspccompile

import (
	"strconv"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

// patternHeaderLen is the 2-byte pointer target that precedes every
// pattern's 8x2-byte channel track table (§4.1/§4.5: a PlayPattern pointer
// addresses this header, the channel table starts header+2).
const patternHeaderLen = 2
const patternTableLen = 16

// BuildSongScopedUpload produces an UploadList that, applied to the base
// SPC image, yields a playable SPC for project.Songs[songIndex] (§4.5).
func BuildSongScopedUpload(project *nspc.Project, songIndex int, opts Options) (*UploadList, error) {
	if songIndex < 0 || songIndex >= len(project.Songs) {
		return nil, &CompileError{Kind: "Unknown song", Msg: "song index out of range"}
	}
	song := project.Songs[songIndex]

	working := song
	if opts.OptimizeSubroutines {
		working = song.Clone()
		working.FlattenAllSubroutines()
		if opts.ApplyOptimizedSongToProject {
			project.Songs[songIndex] = working
		}
	}

	if len(working.Sequence) == 0 {
		return nil, errEmptySequence()
	}

	return compileSong(project, working)
}

// BuildUserContentUpload produces chunks for every UserProvided song,
// instrument, and sample in project (§4.5).
func BuildUserContentUpload(project *nspc.Project, opts Options) (*UploadList, error) {
	out := &UploadList{}
	for i, s := range project.Songs {
		if s.ContentOrigin != nspc.UserProvided {
			continue
		}
		list, err := BuildSongScopedUpload(project, i, opts)
		if err != nil {
			return nil, err
		}
		out.Chunks = append(out.Chunks, list.Chunks...)
		out.Warnings = append(out.Warnings, list.Warnings...)
	}
	for _, inst := range project.Instruments {
		if inst.ContentOrigin != nspc.UserProvided {
			continue
		}
		out.Chunks = append(out.Chunks, instrumentChunk(project.EngineConfig, inst))
	}
	for _, smp := range project.Samples {
		if smp.ContentOrigin != nspc.UserProvided {
			continue
		}
		out.Chunks = append(out.Chunks, sampleChunks(project.EngineConfig, smp)...)
	}
	return out, nil
}

func compileSong(project *nspc.Project, song *nspc.Song) (*UploadList, error) {
	cfg := project.EngineConfig
	var warnings []string

	trackBytes := make(map[int32][]byte, len(song.Tracks))
	trackPatches := make(map[int32][]subroutinePatch, len(song.Tracks))
	for _, t := range song.Tracks {
		b, p, w, err := encodeEventStream(t.Events, cfg)
		if err != nil {
			return nil, err
		}
		trackBytes[t.ID] = b
		trackPatches[t.ID] = p
		warnings = append(warnings, w...)
	}

	subBytes := make(map[int32][]byte, len(song.Subroutines))
	subPatches := make(map[int32][]subroutinePatch, len(song.Subroutines))
	for _, sub := range song.Subroutines {
		b, p, w, err := encodeEventStream(sub.Events, cfg)
		if err != nil {
			return nil, err
		}
		subBytes[sub.ID] = b
		subPatches[sub.ID] = p
		warnings = append(warnings, w...)
	}

	var objects []layoutObject
	_, seqLen := seqOffsets(song.Sequence)
	objects = append(objects, layoutObject{Kind: objSequence, ID: song.ID, Length: seqLen})

	for _, pat := range song.Patterns {
		if pat.ChannelTrackIDs == nil {
			continue
		}
		objects = append(objects, layoutObject{
			Kind: objPatternTable, ID: pat.ID, Length: patternHeaderLen + patternTableLen,
			OriginalAddr: pat.TrackTableAddr - patternHeaderLen, HasOriginal: pat.TrackTableAddr >= patternHeaderLen,
		})
	}
	for _, t := range song.Tracks {
		if len(trackBytes[t.ID]) == 0 {
			warnings = append(warnings, "empty track "+strconv.Itoa(int(t.ID)))
		}
		objects = append(objects, layoutObject{Kind: objTrack, ID: t.ID, Length: len(trackBytes[t.ID]), OriginalAddr: t.OriginalAddr, HasOriginal: t.OriginalAddr != 0})
	}
	for _, sub := range song.Subroutines {
		objects = append(objects, layoutObject{Kind: objSubroutine, ID: sub.ID, Length: len(subBytes[sub.ID]), OriginalAddr: sub.OriginalAddr, HasOriginal: sub.OriginalAddr != 0})
	}

	addrs, err := planLayout(cfg, project.AramUsage, objects, opts.CompactAramLayout)
	if err != nil {
		return nil, err
	}

	// Patch subroutine-call operands now that every address is known.
	for _, t := range song.Tracks {
		buf := trackBytes[t.ID]
		for _, p := range trackPatches[t.ID] {
			addr := addrs[objSubroutine][p.SubroutineID]
			buf[p.Offset] = uint8(addr)
			buf[p.Offset+1] = uint8(addr >> 8)
		}
	}
	for _, sub := range song.Subroutines {
		buf := subBytes[sub.ID]
		for _, p := range subPatches[sub.ID] {
			addr := addrs[objSubroutine][p.SubroutineID]
			buf[p.Offset] = uint8(addr)
			buf[p.Offset+1] = uint8(addr >> 8)
		}
	}

	upload := &UploadList{Warnings: warnings}

	patternHeaderAddr := make(map[int32]uint16, len(song.Patterns))
	for _, pat := range song.Patterns {
		if pat.ChannelTrackIDs == nil {
			continue
		}
		headerAddr := addrs[objPatternTable][pat.ID]
		patternHeaderAddr[pat.ID] = headerAddr

		tableBytes := make([]byte, patternHeaderLen+patternTableLen)
		for c, tid := range pat.ChannelTrackIDs {
			var trackAddr uint16
			if tid >= 0 {
				trackAddr = addrs[objTrack][tid]
			}
			tableBytes[patternHeaderLen+c*2] = uint8(trackAddr)
			tableBytes[patternHeaderLen+c*2+1] = uint8(trackAddr >> 8)
		}
		upload.Chunks = append(upload.Chunks, UploadChunk{Address: headerAddr, Bytes: tableBytes, Label: label("Pattern", int(pat.ID), "Table")})
	}

	seqAddr := addrs[objSequence][song.ID]
	seqBytes := encodeSequence(song.Sequence, patternHeaderAddr, seqAddr, cfg)
	upload.Chunks = append(upload.Chunks, UploadChunk{Address: seqAddr, Bytes: seqBytes, Label: "Sequence"})
	upload.Chunks = append(upload.Chunks, UploadChunk{
		Address: cfg.SongIndexPointers + uint16(song.ID)*2,
		Bytes:   []byte{uint8(seqAddr), uint8(seqAddr >> 8)},
		Label:   "Song Index Entry",
	})

	for _, t := range song.Tracks {
		upload.Chunks = append(upload.Chunks, UploadChunk{Address: addrs[objTrack][t.ID], Bytes: trackBytes[t.ID], Label: label("Track", int(t.ID), "")})
	}
	for _, sub := range song.Subroutines {
		upload.Chunks = append(upload.Chunks, UploadChunk{Address: addrs[objSubroutine][sub.ID], Bytes: subBytes[sub.ID], Label: label("Subroutine", int(sub.ID), "")})
	}

	return upload, nil
}

func instrumentChunk(cfg *nspc.EngineConfig, inst *nspc.Instrument) UploadChunk {
	addr := cfg.InstrumentTable + uint16(inst.ID)*6
	b := []byte{inst.SampleIndex, inst.ADSR1, inst.ADSR2, inst.Gain, inst.BasePitchMult, inst.FracPitchMult}
	return UploadChunk{Address: addr, Bytes: b, Label: label("Instrument", int(inst.ID), "")}
}

func sampleChunks(cfg *nspc.EngineConfig, smp *nspc.BrrSample) []UploadChunk {
	dirAddr := cfg.SampleHeaders + uint16(smp.ID)*4
	dirBytes := []byte{
		uint8(smp.OriginalAddr), uint8(smp.OriginalAddr >> 8),
		uint8(smp.OriginalLoopAddr), uint8(smp.OriginalLoopAddr >> 8),
	}
	return []UploadChunk{
		{Address: dirAddr, Bytes: dirBytes, Label: label("Sample", int(smp.ID), "Directory")},
		{Address: smp.OriginalAddr, Bytes: smp.Data, Label: label("Sample", int(smp.ID), "Data")},
	}
}

func label(kind string, id int, suffix string) string {
	s := kind + " " + strconv.Itoa(id)
	if suffix != "" {
		s += " " + suffix
	}
	return s
}
