// Package block defines basic blocks and their exit behaviour.
//
// A Block holds an ordered sequence of opaque instruction payloads and exactly
// one Exit. Exits are a closed set of variants (Terminal, Jump, CondJump,
// Return, Raise, Try, With); consumers switch over the concrete types and the
// unexported exit() method keeps the set closed to this package.
//
// Blocks refer to each other by index only. The owning flow graph resolves
// indices, so blocks are plain values that are safe to copy.
package block
