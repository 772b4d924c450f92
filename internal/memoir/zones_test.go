package memoir

import (
	"context"
	"testing"

	memerrors "github.com/kestrelmd/memoir/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneMaxDepthRejectsTooDeepKey(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	m.DefineZone(Zone{Name: "shallow", KeyPrefix: "shallow", MaxDepth: 1})

	_, err := m.Set(ctx, "shallow.a", "ok", nil)
	require.NoError(t, err)

	_, err = m.Set(ctx, "shallow.a.b", "too deep", nil)
	require.Error(t, err)
	assert.Equal(t, memerrors.KindZoneDepthExceeded, memerrors.KindOf(err))
}

func TestZoneMaxItemsRejectsOverQuota(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	m.DefineZone(Zone{Name: "tiny", KeyPrefix: "tiny", MaxItems: 1})

	_, err := m.Set(ctx, "tiny.first", "ok", nil)
	require.NoError(t, err)

	_, err = m.Set(ctx, "tiny.second", "rejected", nil)
	require.Error(t, err)
	assert.Equal(t, memerrors.KindZoneQuotaExceeded, memerrors.KindOf(err))
}

func TestZoneMaxItemsOnlyEnforcedForNewFiles(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	m.DefineZone(Zone{Name: "tiny", KeyPrefix: "tiny", MaxItems: 1})

	_, err := m.Set(ctx, "tiny.first", "v1", nil)
	require.NoError(t, err)

	_, err = m.Set(ctx, "tiny.first", "v2 update to an existing file", nil)
	assert.NoError(t, err)
}

func TestZoneDefaultsAppliedOnlyWhenCallerOmitsThem(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	m.DefineZone(Zone{Name: "decaying", KeyPrefix: "decaying", DefaultType: "working", DefaultHalfLifeDays: 7})

	entry, err := m.Set(ctx, "decaying.a", "body", nil)
	require.NoError(t, err)
	assert.Equal(t, "working", entry.Metadata["type"])
	assert.Equal(t, 7.0, entry.Metadata["half_life_days"])

	entry2, err := m.Set(ctx, "decaying.b", "body", map[string]any{"type": "archival"})
	require.NoError(t, err)
	assert.Equal(t, "archival", entry2.Metadata["type"])
}

func TestZoneStatsReportsOccupancy(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	m.DefineZone(Zone{Name: "z", KeyPrefix: "z", MaxItems: 5})
	_, err := m.Set(ctx, "z.one", "a", nil)
	require.NoError(t, err)
	_, err = m.Set(ctx, "z.two", "b", nil)
	require.NoError(t, err)

	stats, err := m.ZoneStats("z")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ItemCount)
	assert.Equal(t, 5, stats.MaxItems)
}

func TestZoneStatsUnknownZoneErrors(t *testing.T) {
	m, _ := newTestMemoir(t)
	_, err := m.ZoneStats("nope")
	assert.Error(t, err)
}
