// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - CycleEvent: a dispatch cycle completed
//   - CycleFailedEvent: a dispatch cycle aborted
//   - RejectionEvent: a request was rejected in a cycle
//   - SolverEvent: statistics of the assignment solver
//   - RouteEvent: a vehicle received a new route
package events
