package block

import "fmt"

// Kind is the kind of a block exit.
type Kind int

const (
	KindTerminal Kind = iota
	KindJump
	KindCondJump
	KindReturn
	KindRaise
	KindTry
	KindWith
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindJump:
		return "jump"
	case KindCondJump:
		return "condjump"
	case KindReturn:
		return "return"
	case KindRaise:
		return "raise"
	case KindTry:
		return "try"
	case KindWith:
		return "with"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Operand is an opaque operand carried by an exit (branch test, with
// resource).
type Operand interface{}

// Exit is the exit behaviour of a block.
type Exit interface {
	Kind() Kind

	// Targets returns the raw target indices in declaration order.
	// Duplicates are kept.
	Targets() []int

	// Retarget returns a copy of the exit with every target equal to old
	// replaced by new.
	Retarget(old, new int) Exit

	exit()
}

// Terminal ends the unit; no successors.
type Terminal struct{}

// Jump is an unconditional transfer to Target.
type Jump struct {
	Target int
}

// CondJump selects True or False depending on Test at run time.
type CondJump struct {
	Test  Operand
	True  int
	False int
}

// Return leaves the containing function.
type Return struct {
	Value bool // Value is true if a value is returned.
}

// Raise leaves the containing function by raising.
type Raise struct{}

// Try enters a protected region at Body. Handler starts the handler (or
// cleanup) chain.
type Try struct {
	Body    int
	Handler int
}

// With enters a scoped-resource region at Body. Cleanup runs on every exit
// from the body.
type With struct {
	Resource Operand
	Body     int
	Cleanup  int
}

func (Terminal) Kind() Kind { return KindTerminal }
func (Jump) Kind() Kind     { return KindJump }
func (CondJump) Kind() Kind { return KindCondJump }
func (Return) Kind() Kind   { return KindReturn }
func (Raise) Kind() Kind    { return KindRaise }
func (Try) Kind() Kind      { return KindTry }
func (With) Kind() Kind     { return KindWith }

func (Terminal) Targets() []int   { return nil }
func (e Jump) Targets() []int     { return []int{e.Target} }
func (e CondJump) Targets() []int { return []int{e.True, e.False} }
func (Return) Targets() []int     { return nil }
func (Raise) Targets() []int      { return nil }
func (e Try) Targets() []int      { return []int{e.Body, e.Handler} }
func (e With) Targets() []int     { return []int{e.Body, e.Cleanup} }

func (e Terminal) Retarget(old, new int) Exit { return e }
func (e Return) Retarget(old, new int) Exit   { return e }
func (e Raise) Retarget(old, new int) Exit    { return e }

func (e Jump) Retarget(old, new int) Exit {
	e.Target = swap(e.Target, old, new)
	return e
}

func (e CondJump) Retarget(old, new int) Exit {
	e.True = swap(e.True, old, new)
	e.False = swap(e.False, old, new)
	return e
}

func (e Try) Retarget(old, new int) Exit {
	e.Body = swap(e.Body, old, new)
	e.Handler = swap(e.Handler, old, new)
	return e
}

func (e With) Retarget(old, new int) Exit {
	e.Body = swap(e.Body, old, new)
	e.Cleanup = swap(e.Cleanup, old, new)
	return e
}

func (Terminal) exit() {}
func (Jump) exit()     {}
func (CondJump) exit() {}
func (Return) exit()   {}
func (Raise) exit()    {}
func (Try) exit()      {}
func (With) exit()     {}

func swap(v, old, new int) int {
	if v == old {
		return new
	}
	return v
}

// Placeholder is the target used for not yet patched forward references.
const Placeholder = -1
