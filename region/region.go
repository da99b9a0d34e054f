package region

import (
	"fmt"

	"github.com/nickng/gostruct/loop"
)

// Region is a detected region. It is one of *Loop, *Conditional, *Try or
// *With.
type Region interface {
	// Entry is the single block control enters the region through.
	Entry() int
	// Blocks returns every block of the region, the entry included.
	Blocks() []int
	String() string
	region()
}

// Loop is a natural loop region.
type Loop struct {
	*loop.Info
}

func (l *Loop) Entry() int     { return l.Header() }
func (l *Loop) Blocks() []int  { return l.Body() }
func (l *Loop) String() string { return l.Info.String() }

// Shape classifies a conditional.
type Shape int

const (
	IfElse      Shape = iota // Both branches re-converge at Merge.
	GuardedExit              // One branch leaves the enclosing region.
	Irreducible              // Neither.
)

func (s Shape) String() string {
	switch s {
	case IfElse:
		return "if-else"
	case GuardedExit:
		return "guarded-exit"
	}
	return "irreducible"
}

// Conditional is a two-way branch region.
type Conditional struct {
	Branch int
	True   int
	False  int
	Then   []int // Blocks owned by the true branch.
	Else   []int // Blocks owned by the false branch.
	Merge  int   // Re-convergence block, or -1.
	Shape  Shape

	// ThenExits/ElseExits are true if the branch never re-joins.
	ThenExits bool
	ElseExits bool

	// Candidates holds the tied merge candidates when the merge point was
	// ambiguous.
	Candidates []int
}

func (c *Conditional) Entry() int { return c.Branch }

func (c *Conditional) Blocks() []int {
	out := []int{c.Branch}
	out = append(out, c.Then...)
	return append(out, c.Else...)
}

func (c *Conditional) String() string {
	return fmt.Sprintf("cond@#%d %s then%v else%v merge #%d", c.Branch, c.Shape, c.Then, c.Else, c.Merge)
}

// Clause is an except clause of a try region.
type Clause struct {
	Dispatch int    // Dispatch test block, or -1 for a bare clause.
	Entry    int    // First block of the clause body.
	Filter   string // Exception filter, "" for a bare clause.
}

// Try is a try region.
type Try struct {
	Setup     int // Block with the Try exit.
	Body      int
	Handler   int
	Protected []int
	Handlers  []int
	Clauses   []Clause
	Reraise   bool // The clause chain ends by re-raising.
	Rethrow   int  // Re-raise block, or -1.
	Finally   int  // Finally block, or -1 for try/except.
	Pad       int  // Empty landing pad jumping to Finally, or -1.
	Follow    int  // Block after the region, or -1.

	Err error // Non-nil if the range is malformed.
}

func (t *Try) Entry() int { return t.Setup }

func (t *Try) Blocks() []int {
	out := []int{t.Setup}
	out = append(out, t.Protected...)
	return append(out, t.Handlers...)
}

func (t *Try) String() string {
	kind := "except"
	if t.Finally >= 0 {
		kind = "finally"
	}
	return fmt.Sprintf("try@#%d %s protected%v handlers%v follow #%d", t.Setup, kind, t.Protected, t.Handlers, t.Follow)
}

// With is a scoped-resource region.
type With struct {
	Setup     int
	Body      int
	Cleanup   int
	Protected []int
	Cleanups  []int
	Follow    int

	Err error
}

func (w *With) Entry() int { return w.Setup }

func (w *With) Blocks() []int {
	out := []int{w.Setup}
	out = append(out, w.Protected...)
	return append(out, w.Cleanups...)
}

func (w *With) String() string {
	return fmt.Sprintf("with@#%d protected%v cleanup #%d", w.Setup, w.Protected, w.Cleanup)
}

func (*Loop) region()        {}
func (*Conditional) region() {}
func (*Try) region()         {}
func (*With) region()        {}
