// Package unionfind implements a concurrent disjoint-set (union-find) forest.
//
// DisjointSet works on dense indices. Every node is a single 64-bit word
// holding its parent and rank, updated with compare-and-swap: Union links
// roots by rank, Find halves paths as it walks them. Neither takes a lock.
//
// SparseDisjointSet maps arbitrary int32 values onto dense indices in order of
// first appearance. The representative of a class is the value stored at the
// class' dense root; it may change whenever the class is merged.
package unionfind
