package wifi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strct-org/strct-wifi/internal/errs"
)

func TestMockWiFiHotspotLifecycle(t *testing.T) {
	m := NewMock(nil)
	ctx := context.Background()

	assert.Equal(t, errs.KindState, errs.KindOf(m.Start(ctx)), "start before create")

	require.NoError(t, m.Create(ctx, setupCred))
	assert.Equal(t, errs.KindState, errs.KindOf(m.Create(ctx, setupCred)), "second create")

	require.NoError(t, m.Start(ctx))
	active, _ := m.IsActive(ctx)
	assert.True(t, active)

	require.NoError(t, m.Stop(ctx))
	active, _ = m.IsActive(ctx)
	assert.False(t, active)

	require.NoError(t, m.Remove(ctx))
	assert.Equal(t, errs.KindNotFound, errs.KindOf(m.Remove(ctx)))
}

func TestMockWiFiClient(t *testing.T) {
	m := NewMock(nil)
	ctx := context.Background()

	nets, err := m.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, nets, 2)

	require.NoError(t, m.Connect(ctx, Credential{SSID: "Test_Net", Password: "pw"}))
	assert.Equal(t, "Test_Net", m.Connected())
	require.NoError(t, m.Disconnect(ctx))
	assert.Error(t, m.Disconnect(ctx))

	require.NoError(t, m.TurnOff(ctx))
	on, _ := m.IsOn(ctx)
	assert.False(t, on)
}
