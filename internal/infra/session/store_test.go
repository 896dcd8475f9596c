package session

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"feedsync/internal/domain"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_LoginAndLogoutFireListeners(t *testing.T) {
	s, err := NewStore(NewMemoryBackend(""), nil)
	require.NoError(t, err)

	var logins []string
	var logouts int
	s.OnLogin(func(token string) { logins = append(logins, token) })
	s.OnLogout(func() { logouts++ })

	require.Empty(t, s.Token())
	require.ErrorIs(t, s.Valid(), domain.ErrNoToken)

	require.NoError(t, s.Login("opaque-token"))
	require.Equal(t, "opaque-token", s.Token())
	require.Equal(t, []string{"opaque-token"}, logins)

	require.NoError(t, s.Logout())
	require.Empty(t, s.Token())
	require.Equal(t, 1, logouts)

	require.NoError(t, s.Logout())
	require.Equal(t, 1, logouts)
}

func TestStore_LoginRejectsEmptyToken(t *testing.T) {
	s, err := NewStore(NewMemoryBackend(""), nil)
	require.NoError(t, err)

	err = s.Login("")
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeInvalidArgument, code)
}

func TestStore_UnsubscribeStopsNotifications(t *testing.T) {
	s, err := NewStore(NewMemoryBackend(""), nil)
	require.NoError(t, err)

	calls := 0
	unsubscribe := s.OnLogin(func(string) { calls++ })
	unsubscribe()

	require.NoError(t, s.Login("tok"))
	require.Zero(t, calls)
}

func TestStore_ExpiredJWTIsAbsent(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	expired := signedToken(t, now.Add(-time.Minute))
	fresh := signedToken(t, now.Add(time.Hour))

	s, err := NewStore(NewMemoryBackend(expired), nil, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	require.Empty(t, s.Token())
	require.ErrorIs(t, s.Valid(), domain.ErrTokenExpired)

	require.NoError(t, s.Login(fresh))
	require.Equal(t, fresh, s.Token())
	require.NoError(t, s.Valid())
}

func TestTokenExpired_OpaqueTokensNeverExpire(t *testing.T) {
	require.False(t, tokenExpired("not-a-jwt", time.Now()))
	require.False(t, tokenExpired("a.b.c", time.Now()))
}

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	token, err := b.Load()
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, b.Save("abc"))
	token, err = b.Load()
	require.NoError(t, err)
	require.Equal(t, "abc", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, b.Clear())
	require.NoError(t, b.Clear())
	token, err = b.Load()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestKeyringBackend_RoundTrip(t *testing.T) {
	b := NewKeyringBackend(keyring.NewArrayKeyring(nil))

	token, err := b.Load()
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, b.Save("secret"))
	token, err = b.Load()
	require.NoError(t, err)
	require.Equal(t, "secret", token)

	require.NoError(t, b.Clear())
	token, err = b.Load()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestStore_WatchFileRemovalFiresLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("tok\n"), 0o600))

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	s, err := NewStore(b, nil)
	require.NoError(t, err)
	require.Equal(t, "tok", s.Token())

	var logouts atomic.Int32
	s.OnLogout(func() { logouts.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.WatchFile(ctx))

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool { return logouts.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	require.Empty(t, s.Token())
}

func TestStore_WatchFileWriteFiresLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	b, err := NewFileBackend(path)
	require.NoError(t, err)
	s, err := NewStore(b, nil)
	require.NoError(t, err)

	logins := make(chan string, 1)
	s.OnLogin(func(token string) { logins <- token })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.WatchFile(ctx))

	writer, err := NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, writer.Save("new-token"))

	select {
	case token := <-logins:
		require.Equal(t, "new-token", token)
	case <-time.After(3 * time.Second):
		t.Fatal("login listener not called")
	}
}

func TestStore_WatchFileTwiceKeepsSingleWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("tok\n"), 0o600))

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	s, err := NewStore(b, nil)
	require.NoError(t, err)

	var logouts atomic.Int32
	s.OnLogout(func() { logouts.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.WatchFile(ctx))
	require.NoError(t, s.WatchFile(ctx))

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool { return logouts.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, int32(1), logouts.Load())
}
