// Package schedule implements the free-time-window arithmetic that the rest
// of the application schedules against: finding unoccupied windows between
// busy intervals subject to a daily cutoff, and greedily allocating a
// required duration across those windows.
//
// The package is pure: it never talks to the Google Calendar API. Busy data
// is handed in directly or pulled through the BusySource interface, which
// keeps memory bounded for scheduling runs that span many weeks.
package schedule
