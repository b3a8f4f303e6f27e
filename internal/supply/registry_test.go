package supply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllOrder(t *testing.T) {
	host := newFakeHost()
	reg := NewRegistry(host, NewStore(DefaultIdentity()), DefaultIdentity())

	require.NoError(t, reg.RegisterAll())
	assert.Equal(t, []string{"register:ac", "register:battery"}, host.calls)
	assert.Equal(t, 2, reg.Registered())
	assert.Equal(t, []string{"DUMMY_BAT"}, host.configs[KindAC].SuppliedTo)
	assert.Empty(t, host.configs[KindBattery].SuppliedTo)

	ac, _ := reg.Device(KindAC)
	assert.Equal(t, []string{"DUMMY_BAT"}, ac.SuppliedTo())
}

func TestRegisterAllRollback(t *testing.T) {
	host := newFakeHost()
	host.failKind = KindBattery
	reg := NewRegistry(host, NewStore(DefaultIdentity()), DefaultIdentity())

	err := reg.RegisterAll()
	require.Error(t, err)

	var regErr *RegistrationError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "DUMMY_BAT", regErr.Device)
	assert.ErrorIs(t, err, errRefused)

	assert.Equal(t, []string{"register:ac", "register:battery", "unregister:ac"}, host.calls)
	assert.Equal(t, 0, reg.Registered())
	assert.Equal(t, 0, host.liveCount())
	assert.Nil(t, reg.Handle(KindAC))
}

func TestRegisterAllFirstFails(t *testing.T) {
	host := newFakeHost()
	host.failKind = KindAC
	reg := NewRegistry(host, NewStore(DefaultIdentity()), DefaultIdentity())

	err := reg.RegisterAll()
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "DUMMY_AC", regErr.Device)
	assert.Equal(t, []string{"register:ac"}, host.calls)
}

func TestUnregisterAllBestEffort(t *testing.T) {
	host := newFakeHost()
	reg := NewRegistry(host, NewStore(DefaultIdentity()), DefaultIdentity())
	require.NoError(t, reg.RegisterAll())

	host.unregFails = true
	reg.UnregisterAll()
	assert.Equal(t, 0, reg.Registered())
	assert.Equal(t, []string{"register:ac", "register:battery", "unregister:ac", "unregister:battery"}, host.calls)
}

func TestLookupByName(t *testing.T) {
	reg := NewRegistry(newFakeHost(), NewStore(DefaultIdentity()), DefaultIdentity())

	d, ok := reg.LookupByName("DUMMY_BAT")
	require.True(t, ok)
	assert.Equal(t, KindBattery, d.Kind())

	_, ok = reg.LookupByName("nope")
	assert.False(t, ok)
}

// Renaming both supplies to the same string must not change which device the
// access policy or notifications apply to; lookup by that name returns the
// adapter.
func TestNameCollision(t *testing.T) {
	host := newFakeHost()
	sim, _ := newTestSimulator(host)
	require.NoError(t, sim.Start(context.Background()))

	require.NoError(t, sim.ApplyParam("ac_name", "SAME"))
	require.NoError(t, sim.ApplyParam("battery_name", "SAME"))

	d, err := sim.LookupByName("SAME")
	require.NoError(t, err)
	assert.Equal(t, KindAC, d.Kind())

	assert.True(t, sim.IsWritable(KindAC, PropOnline))
	assert.False(t, sim.IsWritable(KindAC, PropCapacity))
	assert.True(t, sim.IsWritable(KindBattery, PropCapacity))
	assert.Equal(t, []Kind{KindAC, KindBattery}, host.notifications())
}
