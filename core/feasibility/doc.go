// Package feasibility decides whether a vehicle can serve a set of requests
// on top of its commitments and returns the cheapest stop ordering found.
//
// Orderings keep the committed stops in their relative order. Small request
// sets are searched exhaustively with branch and bound; larger sets seed the
// search with the first EnumerationLimit requests and insert the rest with a
// cheapest-insertion heuristic.
package feasibility
