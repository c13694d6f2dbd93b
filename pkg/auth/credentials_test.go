package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "SUB=_2A25LabcdefghijklmnopqrstuvwxyZ; SUBP=0033WrSXqPxfM725Ws9jqgMF55529P9D9W"

func TestManagerLifecycle(t *testing.T) {
	manager, store := NewMockManager()

	account := &Account{Name: "main", Cookie: testCookie, UserAgent: "TestAgent/1.0"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	retrieved, err := manager.Retrieve("main")
	require.NoError(t, err)
	assert.Equal(t, testCookie, retrieved.Cookie)
	assert.Equal(t, "TestAgent/1.0", retrieved.UserAgent)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("main"))
	assert.Equal(t, 0, store.Count())

	_, err = manager.Retrieve("main")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	assert.ErrorIs(t, manager.Delete("main"), ErrCredentialsNotFound)
}

func TestManagerRejectsInvalidCookie(t *testing.T) {
	manager, store := NewMockManager()

	assert.ErrorIs(t, manager.Store(&Account{Cookie: ""}), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Store(&Account{Cookie: "SUBP=abc; other=1"}), ErrInvalidCredentials)
	assert.Equal(t, 0, store.Count())
}

func TestManagerDefaultsAccountName(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(&Account{Cookie: testCookie}))
	assert.True(t, store.Exists(DefaultAccount))

	account, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAccount, account.Name)
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keyring locked")
	fallback := NewMockStore()
	manager := NewManagerWithStores(broken, fallback)

	require.NoError(t, manager.Store(&Account{Name: "main", Cookie: testCookie}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, fallback.Count())
}

func TestManagerListNewestFirst(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()
	require.NoError(t, older.Store(&Account{Name: "a", Cookie: testCookie, LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Account{Name: "b", Cookie: testCookie, LastModified: now}))
	require.NoError(t, newer.Store(&Account{Name: "a", Cookie: "SUB=newer", LastModified: now.Add(-time.Minute)}))

	accounts, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "b", accounts[0].Name)
	assert.Equal(t, "SUB=newer", accounts[1].Cookie)
}

func TestEnvironmentTakesPrecedenceForDefault(t *testing.T) {
	t.Setenv(EnvCookie, "SUB=from_env")
	t.Setenv(EnvUserAgent, "EnvAgent/2.0")

	store := NewMockStore()
	require.NoError(t, store.Store(&Account{Name: DefaultAccount, Cookie: testCookie}))
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "SUB=from_env", account.Cookie)
	assert.Equal(t, "EnvAgent/2.0", account.UserAgent)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvCookie, "")
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))

	t.Setenv(EnvCookie, testCookie)
	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAccount, account.Name)
	assert.Equal(t, testCookie, account.Cookie)

	assert.ErrorIs(t, store.Store(&Account{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(EnvPassphrase, "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store.Retrieve("main")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Name: "main", Cookie: testCookie}))
	require.NoError(t, store.Store(&Account{Name: "alt", Cookie: "SUB=second"}))

	retrieved, err := store.Retrieve("main")
	require.NoError(t, err)
	assert.Equal(t, testCookie, retrieved.Cookie)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("_2A25L")), "file contains the plaintext cookie")

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("main"))
	require.NoError(t, store.Delete("alt"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(EnvPassphrase, "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "main", Cookie: testCookie}))

	t.Setenv(EnvPassphrase, "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("main")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(EnvPassphrase, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "main", Cookie: testCookie}))

	info, err := os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.True(t, reopened.Exists("main"))
}

func TestParseCookie(t *testing.T) {
	cookies := ParseCookie(" SUB=abc; SUBP=x=y ;bare; =nothing")
	assert.Equal(t, map[string]string{"SUB": "abc", "SUBP": "x=y"}, cookies)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "main", Cookie: testCookie, UserAgent: "agent"}
	sanitized := SanitizeAccount(account)

	assert.Equal(t, "main", sanitized.Name)
	assert.Equal(t, "SUB=_2A2...wxyZ; SUBP=0033...9D9W", sanitized.Cookie)
	assert.NotContains(t, sanitized.Cookie, "abcdefghijklmnop")
	assert.Nil(t, SanitizeAccount(nil))
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()
	store.ListError = errors.New("injected error")

	_, err := store.List()
	assert.EqualError(t, err, "injected error")
}

func TestCookieGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCookieExtractionGuide(&buf)
	assert.Contains(t, buf.String(), "SUB")

	buf.Reset()
	ShowQuickExtractGuide(&buf)
	assert.Contains(t, buf.String(), "Cookie")
}
