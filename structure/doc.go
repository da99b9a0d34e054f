// Package structure turns a flow graph into a tree of structured statements.
//
// The engine repeatedly detects regions on the graph and replaces the first
// ready one by a single synthetic block whose payload is the Node for the
// region, until one block is left. Loops are prepared first (one virtual
// latch per loop, break escapes for exits to the loop follow). When nothing
// reduces, shared blocks are duplicated or their edges cut into Goto escapes,
// each cut recorded as a Diagnostic.
package structure
