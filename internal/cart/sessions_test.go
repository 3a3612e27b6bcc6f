package cart

import (
	"testing"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) *Manager {
	m := NewManager(time.Minute)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManager_CreateAndGet(t *testing.T) {
	m := setupManager(t)

	id, c := m.Create()
	assert.NotEmpty(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestManager_Get_Unknown(t *testing.T) {
	m := setupManager(t)

	_, err := m.Get("nonexistent")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Clear(t *testing.T) {
	m := setupManager(t)

	id, c := m.Create()
	require.NoError(t, c.AddOrIncrement(&domain.Product{Barcode: "123", Name: "Milk", Stock: 1}))

	m.Clear(id)
	_, err := m.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Clearing twice is fine.
	m.Clear(id)
}

func TestManager_ExpiresIdleSessions(t *testing.T) {
	m := setupManager(t)

	idleID, _ := m.Create()
	activeID, _ := m.Create()

	// Backdate the idle session past the TTL.
	m.mu.Lock()
	m.sessions[idleID].lastUsed = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	m.expireSessions(time.Now())

	_, err := m.Get(idleID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Get(activeID)
	assert.NoError(t, err)
}

func TestManager_GetRefreshesIdleTimer(t *testing.T) {
	m := setupManager(t)

	id, _ := m.Create()

	m.mu.Lock()
	m.sessions[id].lastUsed = time.Now().Add(-50 * time.Second)
	m.mu.Unlock()

	_, err := m.Get(id)
	require.NoError(t, err)

	// The touch above moved lastUsed forward, so the sweep keeps it.
	m.expireSessions(time.Now().Add(30 * time.Second))
	_, err = m.Get(id)
	assert.NoError(t, err)
}
