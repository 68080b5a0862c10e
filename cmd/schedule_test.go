package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleCommandColorFlag(t *testing.T) {
	flag := newScheduleCmd().Flags().Lookup("color")
	require.NotNil(t, flag)
	assert.Equal(t, "7", flag.DefValue)
}
