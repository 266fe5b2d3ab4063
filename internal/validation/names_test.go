package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidScopeName(t *testing.T) {
	for _, v := range []string{"a", "openid", "profile:read", "email:read:e2e123", "a_b-c.d:scope2", "a" + strings.Repeat("a", 62) + "b"} {
		require.True(t, ValidScopeName(v), v)
	}
	for _, v := range []string{"", ":lead", "trail:", "bad space", "UPPER", "semicolon;hack", strings.Repeat("a", 65)} {
		require.False(t, ValidScopeName(v), v)
	}
}

func TestValidSchemeName(t *testing.T) {
	for _, v := range []string{"Google", "corp-sso", "aad.v2", "Windows"} {
		require.True(t, ValidSchemeName(v), v)
	}
	for _, v := range []string{"", "idp:corp", "with space", "-lead", "a&b=c"} {
		require.False(t, ValidSchemeName(v), v)
	}
}

func TestFilterScopes(t *testing.T) {
	got := FilterScopes([]string{"openid", "BAD", "profile", "openid", "x;y", "api:read"})
	require.Equal(t, []string{"openid", "profile", "api:read"}, got)
	require.Empty(t, FilterScopes(nil))
}
