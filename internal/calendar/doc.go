// Package calendar wraps the Google Calendar API for the scheduling daemon.
//
// It converts the wire types of google.golang.org/api/calendar/v3 into small
// domain types, retries transient API failures with exponential backoff, and
// memoizes slow-changing lookups such as the calendar list and the account
// timezone.
package calendar
