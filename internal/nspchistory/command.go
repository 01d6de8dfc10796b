// Package nspchistory wraps editor operations in undoable commands with a
// bounded linear history and transactional grouping (§4.4).
package nspchistory

import "github.com/ntrak-go/nspccore/internal/nspc"

// Command is one undoable unit of work against a song.
type Command interface {
	// Execute runs the command against song. On first call it performs the
	// mutation; on redo it restores the captured after-snapshot directly
	// rather than rerunning the mutation, avoiding nondeterminism from
	// transient state. Returns false if the mutation had no effect.
	Execute(song *nspc.Song) bool
	// Undo restores song to its state immediately before Execute's first run.
	Undo(song *nspc.Song)
	// Label describes the command for display.
	Label() string
}

// EditCommand adapts a single editor mutation (the shape every
// internal/nspceditor operation has: func(*nspc.Song, ...) bool, partially
// applied by the caller) into a Command, snapshotting the whole owning song
// before and after (§4.4 "before snapshot... after snapshot").
type EditCommand struct {
	desc  string
	apply func(*nspc.Song) bool

	before *nspc.Song
	after  *nspc.Song
}

// NewEditCommand wraps apply (a closure over the editor call and its
// arguments) as a Command labeled desc.
func NewEditCommand(desc string, apply func(*nspc.Song) bool) *EditCommand {
	return &EditCommand{desc: desc, apply: apply}
}

func (c *EditCommand) Label() string { return c.desc }

func (c *EditCommand) Execute(song *nspc.Song) bool {
	if c.after != nil {
		song.RestoreFrom(c.after)
		return true
	}
	c.before = song.Clone()
	ok := c.apply(song)
	if !ok {
		song.RestoreFrom(c.before)
		return false
	}
	c.after = song.Clone()
	return true
}

func (c *EditCommand) Undo(song *nspc.Song) {
	if c.before != nil {
		song.RestoreFrom(c.before)
	}
}

// CommandGroup aggregates commands executed between BeginGroup/EndGroup into
// one history entry. It undoes/redoes its children in reverse/forward order.
type CommandGroup struct {
	desc     string
	children []Command
}

func (g *CommandGroup) Label() string { return g.desc }

func (g *CommandGroup) Execute(song *nspc.Song) bool {
	ran := false
	for _, c := range g.children {
		if c.Execute(song) {
			ran = true
		}
	}
	return ran
}

func (g *CommandGroup) Undo(song *nspc.Song) {
	for i := len(g.children) - 1; i >= 0; i-- {
		g.children[i].Undo(song)
	}
}

func (g *CommandGroup) empty() bool { return len(g.children) == 0 }
