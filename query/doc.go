// Package query describes list requests and derives canonical cache keys
// from them.
//
// A Query maps filter names to values. Two queries are cache-equivalent
// iff Normalize returns the same string for both, which holds regardless of
// the order in which their fields were assigned.
package query
