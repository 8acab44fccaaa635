package service

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"FileShelf/internal/repo"
	"FileShelf/internal/repo/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIdentityStore_Register(t *testing.T) {
	store := memory.New(0)
	clock := newFakeClock()
	ids := NewIdentityStore(store, nil, clock.Now)

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := ids.Register("   ", "")
		assert.ErrorIs(t, err, ErrValidation)
		_, ok, _ := store.Get(repo.ActiveUserKey)
		assert.False(t, ok)
	})

	t.Run("creates active identity and empty collection", func(t *testing.T) {
		u, err := ids.Register("  alice ", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.DisplayName)
		assert.Equal(t, "user_alice_"+strconv.FormatInt(clock.Now().UnixMilli(), 10), u.UserID)
		assert.True(t, u.HasSecret)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.SecretHash), secretDigest("s3cret")))

		v, ok, _ := store.Get(repo.FilesKey(u.UserID))
		assert.True(t, ok)
		assert.Equal(t, "[]", v)

		active, err := ids.Active()
		require.NoError(t, err)
		assert.Equal(t, u.UserID, active.UserID)
	})

	t.Run("long secret accepted", func(t *testing.T) {
		secret := strings.Repeat("p", 100)
		u, err := ids.Register("carol", secret)
		require.NoError(t, err)
		assert.True(t, u.HasSecret)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.SecretHash), secretDigest(secret)))
		// секреты с общим префиксом из 72 байт различаются
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(u.SecretHash), secretDigest(strings.Repeat("p", 99))))
	})

	t.Run("no secret", func(t *testing.T) {
		u, err := ids.Register("bob", "")
		require.NoError(t, err)
		assert.False(t, u.HasSecret)
		assert.Empty(t, u.SecretHash)
	})
}

func TestIdentityStore_UniqueUnderClockCollision(t *testing.T) {
	store := memory.New(0)
	clock := newFakeClock() // часы стоят на месте

	ids := NewIdentityStore(store, nil, clock.Now)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u, err := ids.Register("alice", "")
		require.NoError(t, err)
		require.False(t, seen[u.UserID], "duplicate id %s", u.UserID)
		seen[u.UserID] = true
	}

	// второй экземпляр на том же хранилище не знает lastStamp, но видит занятые коллекции
	other := NewIdentityStore(store, nil, clock.Now)
	for i := 0; i < 10; i++ {
		u, err := other.Register("alice", "")
		require.NoError(t, err)
		require.False(t, seen[u.UserID], "duplicate id %s", u.UserID)
		seen[u.UserID] = true
	}
}

func TestIdentityStore_LoadActiveRefreshesLastSeen(t *testing.T) {
	store := memory.New(0)
	clock := newFakeClock()
	ids := NewIdentityStore(store, nil, clock.Now)

	assert.Nil(t, ids.LoadActive())

	u, err := ids.Register("carol", "")
	require.NoError(t, err)
	clock.Advance(time.Hour)

	loaded := ids.LoadActive()
	require.NotNil(t, loaded)
	assert.Equal(t, u.UserID, loaded.UserID)
	assert.True(t, loaded.LastSeenAt.After(u.LastSeenAt))

	again, err := ids.Active()
	require.NoError(t, err)
	assert.Equal(t, loaded.LastSeenAt, again.LastSeenAt)
}

func TestIdentityStore_MalformedIdentityTreatedAsAbsent(t *testing.T) {
	store := memory.New(0)
	require.NoError(t, store.Set(repo.ActiveUserKey, "{not json"))
	ids := NewIdentityStore(store, nil, nil)

	assert.Nil(t, ids.LoadActive())
	_, err := ids.Active()
	assert.ErrorIs(t, err, ErrNoActiveIdentity)
}

func TestIdentityStore_ClearActiveKeepsFiles(t *testing.T) {
	store := memory.New(0)
	ids := NewIdentityStore(store, nil, nil)
	u, err := ids.Register("dave", "")
	require.NoError(t, err)

	require.NoError(t, ids.ClearActive())
	_, err = ids.Active()
	assert.ErrorIs(t, err, ErrNoActiveIdentity)

	_, ok, _ := store.Get(repo.FilesKey(u.UserID))
	assert.True(t, ok, "collection must survive logout")
}

func TestIdentityStore_RegisterStorageFailure(t *testing.T) {
	store := memory.New(0)
	store.FailWrites = true
	ids := NewIdentityStore(store, nil, nil)
	_, err := ids.Register("erin", "")
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "alice", sanitizeName("alice"))
	assert.Equal(t, "a_b_c", sanitizeName("a b/c"))
	assert.Equal(t, "张三", sanitizeName("张三"))
	assert.False(t, strings.ContainsAny(sanitizeName(`x"y'z;`), `"';`))
}
