// Package reconcile turns calendar change notifications into calendar edits.
//
// A reconciliation pass fetches the events changed since the last stored sync
// token and dispatches each one: project descriptions are propagated to
// sibling events, flagged events are split at the daily cutoff or at the next
// interrupting event, events carrying a switch marker move to another
// calendar, and work calendar events are made transparent. The pass commits
// the next sync token only after all events were seen, so a crashed pass is
// replayed in full; every edit is idempotent under replay.
package reconcile
