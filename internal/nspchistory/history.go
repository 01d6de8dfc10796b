package nspchistory

import "github.com/ntrak-go/nspccore/internal/nspc"

// DefaultMax is the default bound on the number of entries a History
// retains (§4.4 "configurable maximum (default 100 commands)").
const DefaultMax = 100

// History is a linear undo/redo stack with current_index pointing at the
// next undo position. Pushing a new command clears any redo tail.
type History struct {
	Max      int
	entries  []Command
	current  int
	openGroup *CommandGroup
}

// New creates a History bounded to max entries (DefaultMax if max <= 0).
func New(max int) *History {
	if max <= 0 {
		max = DefaultMax
	}
	return &History{Max: max}
}

// Do runs cmd against song and records it, clearing any redo tail first. If
// a group is open, cmd is appended to it instead of becoming its own entry.
func (h *History) Do(song *nspc.Song, cmd Command) bool {
	ok := cmd.Execute(song)
	if !ok {
		return false
	}
	if h.openGroup != nil {
		h.openGroup.children = append(h.openGroup.children, cmd)
		return true
	}
	h.push(cmd)
	return true
}

func (h *History) push(cmd Command) {
	h.entries = h.entries[:h.current]
	h.entries = append(h.entries, cmd)
	h.current++
	if len(h.entries) > h.Max {
		drop := len(h.entries) - h.Max
		h.entries = h.entries[drop:]
		h.current -= drop
	}
}

// Undo reverts the most recently applied command (or group), returning
// false if there is nothing to undo.
func (h *History) Undo(song *nspc.Song) bool {
	if h.current == 0 {
		return false
	}
	h.current--
	h.entries[h.current].Undo(song)
	return true
}

// Redo reapplies the next command (or group) after an undo, returning false
// if there is nothing to redo.
func (h *History) Redo(song *nspc.Song) bool {
	if h.current >= len(h.entries) {
		return false
	}
	h.entries[h.current].Execute(song)
	h.current++
	return true
}

func (h *History) CanUndo() bool { return h.current > 0 }
func (h *History) CanRedo() bool { return h.current < len(h.entries) }

// BeginGroup opens a CommandGroup labeled desc. A nested BeginGroup call
// closes the prior group first, same as a matching EndGroup would
// (§4.4 "Nested begins close the prior group first").
func (h *History) BeginGroup(desc string) {
	if h.openGroup != nil {
		h.closeGroup()
	}
	h.openGroup = &CommandGroup{desc: desc}
}

// EndGroup closes the currently open group, appending it as one history
// entry. Empty groups are discarded. A call with no open group is a no-op.
func (h *History) EndGroup() {
	h.closeGroup()
}

func (h *History) closeGroup() {
	g := h.openGroup
	h.openGroup = nil
	if g == nil || g.empty() {
		return
	}
	h.push(g)
}

// Transaction is a scoped wrapper around BeginGroup/EndGroup that guarantees
// the group closes on every exit path, including panics (§4.4).
type Transaction struct {
	h *History
}

// BeginTransaction opens a group labeled desc and returns a Transaction
// whose Close method ends it. Callers should `defer tx.Close()`.
func (h *History) BeginTransaction(desc string) *Transaction {
	h.BeginGroup(desc)
	return &Transaction{h: h}
}

// Close ends the transaction's group. Safe to call multiple times.
func (t *Transaction) Close() {
	if t.h == nil {
		return
	}
	t.h.EndGroup()
	t.h = nil
}
