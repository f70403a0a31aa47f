package vertical

import (
	"testing"
	"time"

	"github.com/set-night/citycopilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"dining", "mobility", "civic", "social"}, c.IDs())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := c.Message("dining", now)
	require.NoError(t, err)
	b, err := c.Message("dining", now)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAssistant, a.Role)
	assert.Equal(t, now, a.Timestamp)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.Artifacts, 2)

	_, err = c.Message("space", now)
	assert.ErrorIs(t, err, domain.ErrVerticalNotFound)
}
