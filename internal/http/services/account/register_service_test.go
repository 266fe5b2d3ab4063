package account

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/security/password"
	"github.com/devinmiller/Identity/internal/store/memory"
	"github.com/stretchr/testify/require"
)

var fastHash = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func newRegisterService(t *testing.T) (RegisterService, *memory.Users, *fakeSignIn, *fakeEvents, *fakeInteraction) {
	t.Helper()
	users := memory.NewUsers(fastHash)
	signIn := &fakeSignIn{}
	events := &fakeEvents{}
	ia := newFakeInteraction()
	svc := NewRegisterService(RegisterDeps{
		Interaction: ia,
		Users:       users,
		SignIn:      signIn,
		Events:      events,
		Options:     DefaultOptions(),
	})
	return svc, users, signIn, events, ia
}

func TestRegister_Success(t *testing.T) {
	svc, users, signIn, events, ia := newRegisterService(t)
	ia.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "x"}

	out, err := svc.Register(context.Background(), httptest.NewRecorder(), dto.RegisterInput{
		Email:           "bob@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
		ReturnURL:       authorizeURL,
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRedirectLocal, out.Kind)
	require.Equal(t, authorizeURL, out.RedirectURL)

	u, err := users.FindByName(context.Background(), "BOB@example.com")
	require.NoError(t, err)
	require.True(t, users.CheckPassword(u, "correct horse"))
	require.Len(t, signIn.users, 1)
	require.Equal(t, []repository.EventKind{repository.EventUserLoginSuccess}, events.kinds())
	require.Equal(t, "x", events.events[0].ClientID)
}

func TestRegister_EmptyReturnURLGoesHome(t *testing.T) {
	svc, _, _, _, _ := newRegisterService(t)

	out, err := svc.Register(context.Background(), httptest.NewRecorder(), dto.RegisterInput{
		Email: "bob@example.com", Password: "correct horse", ConfirmPassword: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRedirectHome, out.Kind)
}

func TestRegister_ForeignReturnURLCreatesNothing(t *testing.T) {
	svc, users, _, _, _ := newRegisterService(t)

	_, err := svc.Register(context.Background(), httptest.NewRecorder(), dto.RegisterInput{
		Email: "bob@example.com", Password: "correct horse", ConfirmPassword: "correct horse",
		ReturnURL: "//evil.example/",
	})
	require.ErrorIs(t, err, ErrUnsafeRedirect)
	_, err = users.FindByName(context.Background(), "bob@example.com")
	require.True(t, repository.IsNotFound(err))
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   dto.RegisterInput
		want error
	}{
		{name: "bad email", in: dto.RegisterInput{Email: "not-an-email", Password: "longenough", ConfirmPassword: "longenough"}, want: ErrInvalidEmail},
		{name: "mismatch", in: dto.RegisterInput{Email: "a@b.co", Password: "longenough", ConfirmPassword: "different1"}, want: ErrPasswordMismatch},
		{name: "weak", in: dto.RegisterInput{Email: "a@b.co", Password: "short", ConfirmPassword: "short"}, want: ErrPasswordTooWeak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, signIn, _, _ := newRegisterService(t)
			_, err := svc.Register(context.Background(), httptest.NewRecorder(), tt.in)
			require.ErrorIs(t, err, tt.want)
			require.Empty(t, signIn.users)
		})
	}
}

func TestRegister_WeakPasswordCarriesReasons(t *testing.T) {
	svc, _, _, _, _ := newRegisterService(t)

	_, err := svc.Register(context.Background(), httptest.NewRecorder(), dto.RegisterInput{
		Email: "a@b.co", Password: "short", ConfirmPassword: "short",
	})
	var perr *password.PolicyError
	require.ErrorAs(t, err, &perr)
	require.Contains(t, perr.Reasons, "too_short")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _, _, _ := newRegisterService(t)
	in := dto.RegisterInput{Email: "bob@example.com", Password: "correct horse", ConfirmPassword: "correct horse"}

	_, err := svc.Register(context.Background(), httptest.NewRecorder(), in)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), httptest.NewRecorder(), in)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_Prepare(t *testing.T) {
	svc, _, _, _, _ := newRegisterService(t)
	p := svc.Prepare(context.Background(), "/profile")
	require.Equal(t, "/profile", p.ReturnURL)
	require.Equal(t, 8, p.PasswordMinLength)
}
