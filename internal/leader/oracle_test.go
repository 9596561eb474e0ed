package leader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOracleStartsInGivenState(t *testing.T) {
	assert.True(t, New(true).IsLeader())
	assert.False(t, New(false).IsLeader())
}

func TestOracleSetLeaderUpdatesState(t *testing.T) {
	o := New(false)
	o.SetLeader(true)
	assert.True(t, o.IsLeader())
	o.SetLeader(false)
	assert.False(t, o.IsLeader())
}
