// Package loop provides utilities for loop representation and detection.
//
// Loop detection works on the dominator tree of a flow graph: every back edge
// tail -> head (head dominates tail) marks head as a loop header, and the
// natural loop of the edge is head plus every block that reaches tail without
// passing through head. Back edges sharing a header are merged into one loop.
//
// Loops are arranged in a nesting tree so that callers can process the
// innermost loop first. The shape of a loop (test at the top, test at the
// bottom, or no test at all) and its follow block are recorded in Info once
// decided by the structuring engine.
package loop
