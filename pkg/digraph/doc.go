// Package digraph provides a small directed-graph arena used by the topology
// analyzer and the layout engine.
//
// Nodes live in a slice and are addressed by string ID through an index map;
// adjacency is stored as per-node index lists. Iteration follows insertion
// order, so every algorithm built on a [Graph] is deterministic for a fixed
// input. Cycles and self-loops are allowed.
//
// # Crossings
//
// [CountLayerCrossings] and [CountCrossings] count edge crossings between
// ordered layers with a Fenwick tree. [CountPairCrossingsWithPos] supports
// local adjacent-swap heuristics.
package digraph
