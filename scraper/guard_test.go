package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageGuard(t *testing.T) {
	g, err := newPageGuard(4)
	require.NoError(t, err)

	require.NoError(t, g.check(0, []byte(`{"features":[1]}`)))
	require.NoError(t, g.check(2, []byte(`{"features":[2]}`)))
	require.NoError(t, g.check(0, []byte(`{"features":[1]}`)), "same offset is not a repeat")

	err = g.check(4, []byte(`{"features":[1]}`))
	require.ErrorIs(t, err, ErrRepeatedPage)
	assert.Contains(t, err.Error(), "offset 4 matches offset 0")

	g.reset()
	assert.NoError(t, g.check(4, []byte(`{"features":[1]}`)))
}

func TestNewPageGuardInvalidSize(t *testing.T) {
	_, err := newPageGuard(0)
	assert.Error(t, err)
}
