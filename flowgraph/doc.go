// Package flowgraph is an arena of basic blocks with a designated source
// block.
//
// Blocks are addressed by index. Edges are never stored: they are derived from
// each block's exit whenever they are needed, so patching an exit can never
// leave a stale edge behind. Dominance, post-dominance and traversal orders are
// cached and the cache is dropped on every mutation.
//
// Construction is either strict, where every target must already exist (or be
// the block being added), or two-phase with AllowForward: blocks may reference
// targets that do not exist yet, or block.Placeholder, and Resolve checks the
// graph once all blocks are added and patched.
package flowgraph
