package pg

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/security/password"
	"github.com/devinmiller/Identity/migrations/postgres"
	"github.com/stretchr/testify/require"
)

func TestParseMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(postgres.FS, ".").ParseMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migs), 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "clients", migs[0].Name)
	require.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS client")
}

func TestParseMigrations_OrderAndDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.sql": {Data: []byte("B")},
		"0001_a.sql": {Data: []byte("A")},
		"README.md":  {Data: []byte("ignored")},
		"x_bad.sql":  {Data: []byte("ignored")},
	}
	migs, err := NewMigrator(fsys, ".").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, "a", migs[0].Name)

	fsys["0002_c.sql"] = &fstest.MapFile{Data: []byte("C")}
	_, err = NewMigrator(fsys, ".").ParseMigrations()
	require.Error(t, err)
}

// Integración: requiere PG_TEST_DSN apuntando a una base descartable.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := New(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	_, err = NewMigrator(postgres.FS, ".").Run(ctx, s.Pool())
	require.NoError(t, err)

	clients := s.Clients()
	require.NoError(t, clients.Upsert(ctx, repository.ClientPolicy{ClientID: "it-web", Enabled: true, RedirectURIs: []string{"https://app/cb"}}))
	c, err := clients.FindEnabledClient(ctx, "it-web")
	require.NoError(t, err)
	require.Equal(t, []string{"https://app/cb"}, c.RedirectURIs)

	params := password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}
	users := s.Users(func(p string) (string, error) { return password.Hash(params, p) }, password.Verify)
	name := "it-" + t.Name()
	_, err = users.Create(ctx, repository.CreateUserInput{Username: name, Password: "pw"})
	if err != nil {
		require.ErrorIs(t, err, repository.ErrConflict)
	}
	u, err := users.FindByName(ctx, name)
	require.NoError(t, err)
	require.True(t, users.CheckPassword(u, "pw"))
}
