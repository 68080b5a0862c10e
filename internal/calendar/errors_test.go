package calendar

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsInvalidSyncToken(t *testing.T) {
	gone := &googleapi.Error{Code: 410, Message: "Sync token is no longer valid"}
	assert.True(t, IsInvalidSyncToken(gone))
	assert.True(t, IsInvalidSyncToken(fmt.Errorf("failed to list changed events: %w", gone)))
	assert.False(t, IsInvalidSyncToken(&googleapi.Error{Code: 400}))
	assert.False(t, IsInvalidSyncToken(errors.New("plain")))
	assert.False(t, IsInvalidSyncToken(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&googleapi.Error{Code: 404}))
	assert.False(t, IsNotFound(&googleapi.Error{Code: 410}))
	assert.False(t, IsNotFound(nil))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&googleapi.Error{Code: 429}))
	assert.True(t, IsTransient(&googleapi.Error{Code: 500}))
	assert.True(t, IsTransient(&googleapi.Error{Code: 503}))
	assert.True(t, IsTransient(timeoutErr{}))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", timeoutErr{})))

	assert.False(t, IsTransient(&googleapi.Error{Code: 404}))
	assert.False(t, IsTransient(&googleapi.Error{Code: 410}))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}
