package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte("server:\n  base_url: https://id.example.com\n"))
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, "sid", c.Session.CookieName)
	require.Equal(t, "/connect/authorize/callback", c.Interaction.AuthorizeCallbackPath)
	require.Equal(t, "Windows", c.Account.WindowsAuthenticationSchemeName)
	require.True(t, BoolOr(c.Account.AllowLocalLogin, true))
	require.NoError(t, c.Validate())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("CACHE_KIND", "redis")
	t.Setenv("PG_DSN", "postgres://u:p@localhost/db")
	t.Setenv("STATE_SIGNING_KEY", "k")

	c, err := Parse([]byte("{}"))
	require.NoError(t, err)
	require.Equal(t, ":9999", c.Server.Addr)
	require.Equal(t, "redis", c.Cache.Kind)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, "k", c.External.StateSigningKey)
}

func TestValidate_Errors(t *testing.T) {
	c, err := Parse([]byte(`
app:
  app_env: prod
session:
  same_site: Weird
providers:
  - scheme: google
  - scheme: Google
  - scheme: "idp:corp"
clients:
  - client_id: web
  - client_id: web
users:
  - username: alice
    password: secret
`))
	require.NoError(t, err)
	err = c.Validate()
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "same_site")
	require.Contains(t, msg, "duplicate scheme")
	require.Contains(t, msg, "invalid scheme")
	require.Contains(t, msg, "state_signing_key")
	require.Contains(t, msg, "duplicate client_id")
	require.Contains(t, msg, "plaintext password")
	require.Contains(t, msg, "session.secure")
}

func TestHelpers(t *testing.T) {
	f := false
	require.False(t, BoolOr(&f, true))
	require.Equal(t, 2*time.Minute, DurationOr("2m", time.Second))
	require.Equal(t, time.Second, DurationOr("nope", time.Second))
}
