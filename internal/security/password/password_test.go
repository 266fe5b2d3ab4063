package password

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var fastParams = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(fastParams, "Pass123$")
	require.NoError(t, err)
	require.True(t, Verify("Pass123$", phc))
	require.False(t, Verify("pass123$", phc))
}

func TestHash_RejectsEmpty(t *testing.T) {
	_, err := Hash(fastParams, "")
	require.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$ZGs",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$ZGs",
	} {
		require.False(t, Verify("x", phc), "phc %q", phc)
	}
}

func TestPolicy_Check(t *testing.T) {
	p := Policy{MinLength: 8, RequireDigit: true, RequireUpper: true}
	require.NoError(t, p.Check("Abcdefg1"))

	err := p.Check("abc")
	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	require.ElementsMatch(t, []string{"too_short", "missing_digit", "missing_upper"}, pe.Reasons)
}
