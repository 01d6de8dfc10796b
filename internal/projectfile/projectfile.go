// Package projectfile persists the user-owned overlay of a project — songs,
// instruments, and samples that are UserProvided or carry non-default
// metadata — as a versioned document separate from the base SPC (§4.6).
package projectfile

import (
	"encoding/base64"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FormatTag and CurrentVersion identify this project file format (§4.6).
const (
	FormatTag      = "ntrak_project_ir"
	CurrentVersion = 4
)

// ErrSchema is returned for any malformed or unrecognized project file.
var ErrSchema = fmt.Errorf("projectfile: invalid schema")

// EventPackIr is one track or subroutine's event stream, persisted packed
// rather than structured per-event.
type EventPackIr struct {
	ID           int32  `json:"id"`
	Encoding     string `json:"encoding"`
	Data         string `json:"data"`
	OriginalAddr uint16 `json:"originalAddr"`
}

// PatternIr mirrors nspc.Pattern.
type PatternIr struct {
	ID              int32  `json:"id"`
	ChannelTrackIDs *[8]int32 `json:"channelTrackIds,omitempty"`
	TrackTableAddr  uint16 `json:"trackTableAddr"`
}

// SeqOpIr mirrors nspc.SeqOp.
type SeqOpIr struct {
	Kind           nspc.SeqOpKind `json:"kind"`
	PatternID      int32          `json:"patternId,omitempty"`
	TrackTableAddr uint16         `json:"trackTableAddr,omitempty"`
	Count          uint8          `json:"count,omitempty"`
	TargetKind     nspc.SeqTargetKind `json:"targetKind,omitempty"`
	TargetIndex    int            `json:"targetIndex,omitempty"`
	TargetAddr     uint16         `json:"targetAddr,omitempty"`
	Opcode         uint8          `json:"opcode,omitempty"`
}

// SongIr is one song's persisted overlay entry.
type SongIr struct {
	ID          int32         `json:"id"`
	Name        string        `json:"name"`
	Author      string        `json:"author"`
	Sequence    []SeqOpIr     `json:"sequence"`
	Patterns    []PatternIr   `json:"patterns"`
	Tracks      []EventPackIr `json:"tracks"`
	Subroutines []EventPackIr `json:"subroutines"`
	NextEventID uint64        `json:"nextEventId"`
}

// InstrumentIr mirrors nspc.Instrument.
type InstrumentIr struct {
	ID             int32  `json:"id"`
	SampleIndex    uint8  `json:"sampleIndex"`
	ADSR1          uint8  `json:"adsr1"`
	ADSR2          uint8  `json:"adsr2"`
	Gain           uint8  `json:"gain"`
	BasePitchMult  uint8  `json:"basePitchMult"`
	FracPitchMult  uint8  `json:"fracPitchMult"`
	PercussionNote uint8  `json:"percussionNote"`
	Name           string `json:"name"`
	OriginalAddr   uint16 `json:"originalAddr"`
}

// SampleIr mirrors nspc.BrrSample, with BRR bytes base64-encoded.
type SampleIr struct {
	ID               int32  `json:"id"`
	Name             string `json:"name"`
	Data             string `json:"data"`
	DataEncoding     string `json:"dataEncoding"`
	OriginalAddr     uint16 `json:"originalAddr"`
	OriginalLoopAddr uint16 `json:"originalLoopAddr"`
}

// EngineRetainedIr names the engine-owned IDs that must survive when this
// overlay is applied; every other engine-owned ID is pruned.
type EngineRetainedIr struct {
	Songs       []int32 `json:"songs"`
	Instruments []int32 `json:"instruments"`
	Samples     []int32 `json:"samples"`
}

// ProjectIrData is the full in-memory shape of a project file.
type ProjectIrData struct {
	Format         string           `json:"format"`
	Version        int              `json:"version"`
	Engine         string           `json:"engine"`
	BaseSpcPath    string           `json:"baseSpcPath,omitempty"`
	Songs          []SongIr         `json:"songs"`
	Instruments    []InstrumentIr   `json:"instruments"`
	Samples        []SampleIr       `json:"samples"`
	EngineRetained EngineRetainedIr `json:"engineRetained"`
}

// SaveProjectIrFile writes project's user-owned overlay to path. Fails
// cleanly (no partial file left behind) on any I/O error.
func SaveProjectIrFile(project *nspc.Project, path string, baseSpcPath string) error {
	doc := buildOverlay(project, baseSpcPath)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("projectfile: encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("projectfile: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("projectfile: finalize: %w", err)
	}
	return nil
}

// LoadProjectIrFile parses path into a ProjectIrData, validating the
// format/version fields strictly.
func LoadProjectIrFile(path string) (*ProjectIrData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projectfile: read: %w", err)
	}
	var doc ProjectIrData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if doc.Format != FormatTag {
		return nil, fmt.Errorf("%w: unrecognized format %q", ErrSchema, doc.Format)
	}
	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSchema, doc.Version)
	}
	return &doc, nil
}

func buildOverlay(project *nspc.Project, baseSpcPath string) ProjectIrData {
	doc := ProjectIrData{
		Format:      FormatTag,
		Version:     CurrentVersion,
		BaseSpcPath: baseSpcPath,
	}
	if project.EngineConfig != nil {
		doc.Engine = project.EngineConfig.Name
	}

	for _, s := range project.Songs {
		if s.ContentOrigin != nspc.UserProvided && s.Name == "" && s.Author == "" {
			continue
		}
		doc.Songs = append(doc.Songs, songToIr(s))
	}
	for _, inst := range project.Instruments {
		if inst.ContentOrigin != nspc.UserProvided {
			continue
		}
		doc.Instruments = append(doc.Instruments, instrumentToIr(inst))
	}
	for _, smp := range project.Samples {
		if smp.ContentOrigin != nspc.UserProvided {
			continue
		}
		doc.Samples = append(doc.Samples, sampleToIr(smp))
	}
	if project.EngineConfig != nil {
		for _, s := range project.Songs {
			if s.ContentOrigin == nspc.EngineProvided {
				doc.EngineRetained.Songs = append(doc.EngineRetained.Songs, s.ID)
			}
		}
		for _, inst := range project.Instruments {
			if inst.ContentOrigin == nspc.EngineProvided {
				doc.EngineRetained.Instruments = append(doc.EngineRetained.Instruments, inst.ID)
			}
		}
		for _, smp := range project.Samples {
			if smp.ContentOrigin == nspc.EngineProvided {
				doc.EngineRetained.Samples = append(doc.EngineRetained.Samples, smp.ID)
			}
		}
	}
	return doc
}

func songToIr(s *nspc.Song) SongIr {
	ir := SongIr{ID: s.ID, Name: s.Name, Author: s.Author, NextEventID: uint64(s.NextEventID)}
	for _, op := range s.Sequence {
		ir.Sequence = append(ir.Sequence, SeqOpIr{
			Kind: op.Kind, PatternID: op.PatternID, TrackTableAddr: op.TrackTableAddr,
			Count: op.Count, TargetKind: op.Target.Kind, TargetIndex: op.Target.Index,
			TargetAddr: op.Target.Addr, Opcode: op.Opcode,
		})
	}
	for _, p := range s.Patterns {
		ir.Patterns = append(ir.Patterns, PatternIr{ID: p.ID, ChannelTrackIDs: p.ChannelTrackIDs, TrackTableAddr: p.TrackTableAddr})
	}
	for _, t := range s.Tracks {
		ir.Tracks = append(ir.Tracks, EventPackIr{ID: t.ID, Encoding: eventpackVersion, Data: base64.StdEncoding.EncodeToString(packEvents(t.Events)), OriginalAddr: t.OriginalAddr})
	}
	for _, sub := range s.Subroutines {
		ir.Subroutines = append(ir.Subroutines, EventPackIr{ID: sub.ID, Encoding: eventpackVersion, Data: base64.StdEncoding.EncodeToString(packEvents(sub.Events)), OriginalAddr: sub.OriginalAddr})
	}
	return ir
}

func instrumentToIr(inst *nspc.Instrument) InstrumentIr {
	return InstrumentIr{
		ID: inst.ID, SampleIndex: inst.SampleIndex, ADSR1: inst.ADSR1, ADSR2: inst.ADSR2,
		Gain: inst.Gain, BasePitchMult: inst.BasePitchMult, FracPitchMult: inst.FracPitchMult,
		PercussionNote: inst.PercussionNote, Name: inst.Name, OriginalAddr: inst.OriginalAddr,
	}
}

func sampleToIr(smp *nspc.BrrSample) SampleIr {
	return SampleIr{
		ID: smp.ID, Name: smp.Name, Data: base64.StdEncoding.EncodeToString(smp.Data), DataEncoding: "base64",
		OriginalAddr: smp.OriginalAddr, OriginalLoopAddr: smp.OriginalLoopAddr,
	}
}

func songFromIr(ir SongIr) (*nspc.Song, error) {
	s := &nspc.Song{ID: ir.ID, Name: ir.Name, Author: ir.Author, ContentOrigin: nspc.UserProvided, NextEventID: nspc.EventID(ir.NextEventID)}
	for _, op := range ir.Sequence {
		s.Sequence = append(s.Sequence, nspc.SeqOp{
			Kind: op.Kind, PatternID: op.PatternID, TrackTableAddr: op.TrackTableAddr, Count: op.Count,
			Target: nspc.SeqTarget{Kind: op.TargetKind, Index: op.TargetIndex, Addr: op.TargetAddr}, Opcode: op.Opcode,
		})
	}
	for _, p := range ir.Patterns {
		s.Patterns = append(s.Patterns, nspc.Pattern{ID: p.ID, ChannelTrackIDs: p.ChannelTrackIDs, TrackTableAddr: p.TrackTableAddr})
	}
	for _, t := range ir.Tracks {
		raw, err := base64.StdEncoding.DecodeString(t.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: track %d base64: %v", ErrSchema, t.ID, err)
		}
		events, err := unpackEvents(raw)
		if err != nil {
			return nil, err
		}
		s.Tracks = append(s.Tracks, nspc.Track{ID: t.ID, Events: events, OriginalAddr: t.OriginalAddr})
	}
	for _, sub := range ir.Subroutines {
		raw, err := base64.StdEncoding.DecodeString(sub.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: subroutine %d base64: %v", ErrSchema, sub.ID, err)
		}
		events, err := unpackEvents(raw)
		if err != nil {
			return nil, err
		}
		s.Subroutines = append(s.Subroutines, nspc.Subroutine{ID: sub.ID, Events: events, OriginalAddr: sub.OriginalAddr})
	}
	return s, nil
}

func instrumentFromIr(ir InstrumentIr) *nspc.Instrument {
	return &nspc.Instrument{
		ID: ir.ID, SampleIndex: ir.SampleIndex, ADSR1: ir.ADSR1, ADSR2: ir.ADSR2, Gain: ir.Gain,
		BasePitchMult: ir.BasePitchMult, FracPitchMult: ir.FracPitchMult, PercussionNote: ir.PercussionNote,
		Name: ir.Name, OriginalAddr: ir.OriginalAddr, ContentOrigin: nspc.UserProvided,
	}
}

func sampleFromIr(ir SampleIr) (*nspc.BrrSample, error) {
	data, err := base64.StdEncoding.DecodeString(ir.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: sample %d base64: %v", ErrSchema, ir.ID, err)
	}
	return &nspc.BrrSample{
		ID: ir.ID, Name: ir.Name, Data: data, OriginalAddr: ir.OriginalAddr,
		OriginalLoopAddr: ir.OriginalLoopAddr, ContentOrigin: nspc.UserProvided,
	}, nil
}
