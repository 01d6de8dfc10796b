// Package nspcverify implements the round-trip verifier (§4.7): compile a
// song, apply the upload to a fresh copy of the project's source SPC,
// reparse it, and compare the reparsed song against the original.
package nspcverify

import (
	"fmt"
	"reflect"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspccompile"
	"github.com/ntrak-go/nspccore/internal/nspcparser"
)

// RoundTripReport is the outcome of verifying one song's compile/parse
// round trip (§8.2 "Round-trip laws").
type RoundTripReport struct {
	Equivalent             bool
	PointerDifferencesIgnored int
	DifferingBytes         int
	Notes                  []string
}

// VerifySongRoundTrip compiles songIndex, applies the upload onto a fresh
// copy of project.SourceSpcData, reparses it with the project's engine
// config, and compares the reparsed song to the original.
func VerifySongRoundTrip(project *nspc.Project, songIndex int) (*RoundTripReport, error) {
	if songIndex < 0 || songIndex >= len(project.Songs) {
		return nil, fmt.Errorf("nspcverify: song index %d out of range", songIndex)
	}
	original := project.Songs[songIndex]

	upload, err := nspccompile.BuildSongScopedUpload(project, songIndex, nspccompile.Options{})
	if err != nil {
		return nil, fmt.Errorf("nspcverify: compile: %w", err)
	}

	if len(project.SourceSpcData) == 0 {
		return nil, fmt.Errorf("nspcverify: project has no source SPC image to round-trip against")
	}
	patched := nspccompile.ApplyUploadToSpcImage(upload, project.SourceSpcData)

	reparsed, err := nspcparser.Parse(patched, []*nspc.EngineConfig{project.EngineConfig})
	if err != nil {
		return nil, fmt.Errorf("nspcverify: reparse: %w", err)
	}

	reparsedSong := reparsed.SongByID(original.ID)
	if reparsedSong == nil {
		return &RoundTripReport{
			Equivalent: false,
			Notes:      []string{fmt.Sprintf("song %d missing after reparse", original.ID)},
		}, nil
	}

	report := &RoundTripReport{Equivalent: true}
	compareSongs(original, reparsedSong, report)
	report.Equivalent = report.DifferingBytes == 0
	return report, nil
}

// compareSongs walks the two song trees field by field. OriginalAddr
// differences are expected (the compiler may relocate content) and are
// counted separately rather than failing the comparison.
func compareSongs(a, b *nspc.Song, report *RoundTripReport) {
	if a.Name != b.Name || a.Author != b.Author {
		report.DifferingBytes++
		report.Notes = append(report.Notes, "song metadata differs")
	}
	if !reflect.DeepEqual(a.Sequence, b.Sequence) {
		report.DifferingBytes++
		report.Notes = append(report.Notes, "sequence differs")
	}
	comparePatterns(a.Patterns, b.Patterns, report)
	compareOwners(trackOwners(a.Tracks), trackOwners(b.Tracks), "track", report)
	compareOwners(subroutineOwners(a.Subroutines), subroutineOwners(b.Subroutines), "subroutine", report)
}

type owner struct {
	id           int32
	events       []nspc.Entry
	originalAddr uint16
}

func trackOwners(ts []nspc.Track) []owner {
	out := make([]owner, len(ts))
	for i, t := range ts {
		out[i] = owner{id: t.ID, events: t.Events, originalAddr: t.OriginalAddr}
	}
	return out
}

func subroutineOwners(ss []nspc.Subroutine) []owner {
	out := make([]owner, len(ss))
	for i, s := range ss {
		out[i] = owner{id: s.ID, events: s.Events, originalAddr: s.OriginalAddr}
	}
	return out
}

func compareOwners(a, b []owner, kind string, report *RoundTripReport) {
	if len(a) != len(b) {
		report.DifferingBytes++
		report.Notes = append(report.Notes, fmt.Sprintf("%s count differs: %d vs %d", kind, len(a), len(b)))
		return
	}
	for i := range a {
		if a[i].originalAddr != b[i].originalAddr {
			report.PointerDifferencesIgnored++
		}
		if !reflect.DeepEqual(a[i].events, b[i].events) {
			report.DifferingBytes++
			report.Notes = append(report.Notes, fmt.Sprintf("%s %d events differ", kind, a[i].id))
		}
	}
}

func comparePatterns(a, b []nspc.Pattern, report *RoundTripReport) {
	if len(a) != len(b) {
		report.DifferingBytes++
		report.Notes = append(report.Notes, fmt.Sprintf("pattern count differs: %d vs %d", len(a), len(b)))
		return
	}
	for i := range a {
		if a[i].ChannelTrackIDs == nil || b[i].ChannelTrackIDs == nil {
			if a[i].ChannelTrackIDs != b[i].ChannelTrackIDs {
				report.DifferingBytes++
				report.Notes = append(report.Notes, fmt.Sprintf("pattern %d channel map nil mismatch", a[i].ID))
			}
			continue
		}
		if *a[i].ChannelTrackIDs != *b[i].ChannelTrackIDs {
			report.DifferingBytes++
			report.Notes = append(report.Notes, fmt.Sprintf("pattern %d channel map differs", a[i].ID))
		}
		if a[i].TrackTableAddr != b[i].TrackTableAddr {
			report.PointerDifferencesIgnored++
		}
	}
}
