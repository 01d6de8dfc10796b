// Package nspccompile builds playable SPC uploads from a project's songs,
// instruments, and samples: encode, plan ARAM layout, patch pointers, and
// emit ordered chunks (§4.5).
package nspccompile

import "fmt"

// UploadChunk is one placed, byte-encoded object ready to be written into an
// SPC image at Address (relative to ARAM's start, i.e. add 0x100 for the
// file offset).
type UploadChunk struct {
	Address uint16
	Bytes   []byte
	Label   string
}

// UploadList is an ordered set of chunks plus accumulated non-fatal
// warnings from the compile that produced it.
type UploadList struct {
	Chunks   []UploadChunk
	Warnings []string
}

// Options configures one compile.
type Options struct {
	// OptimizeSubroutines runs Song.FlattenAllSubroutines on a copy of the
	// song before encoding, inlining subroutine calls; no dedup or
	// compression pass is run.
	OptimizeSubroutines bool
	// CompactAramLayout packs objects tightly from the lowest free address
	// instead of reusing original addresses where possible.
	CompactAramLayout bool
	// ApplyOptimizedSongToProject replaces the source song in the project
	// with the optimizer's equivalent output, rather than discarding it
	// after the compile.
	ApplyOptimizedSongToProject bool
}

// CompileError is a string-tagged compile failure (§7).
type CompileError struct {
	Kind string
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Msg == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func errOutOfAram(detail string) error   { return &CompileError{Kind: "Out of ARAM", Msg: detail} }
func errEmptySequence() error            { return &CompileError{Kind: "Empty sequence"} }
func errUnmappedVcmd(detail string) error { return &CompileError{Kind: "Unmapped VCMD in strict engine", Msg: detail} }
