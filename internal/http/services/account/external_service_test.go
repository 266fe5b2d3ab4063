package account

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/providers"
	"github.com/stretchr/testify/require"
)

type externalFixture struct {
	interaction *fakeInteraction
	providers   *fakeProviders
	state       *providers.StateSigner
	sessions    *fakeSessions
	events      *fakeEvents
}

func newExternalFixture() *externalFixture {
	return &externalFixture{
		interaction: newFakeInteraction(),
		providers: &fakeProviders{
			known:    map[string]bool{"corp": true},
			identity: &providers.ExternalIdentity{Subject: "ext-42", Name: "Carol"},
			endURL:   "https://corp.example/logout",
		},
		state:    providers.NewStateSigner([]byte("0123456789abcdef0123456789abcdef"), time.Minute),
		sessions: &fakeSessions{},
		events:   &fakeEvents{},
	}
}

func (f *externalFixture) service() ExternalService {
	opts := DefaultOptions()
	opts.BaseURL = "https://id.example/"
	return NewExternalService(ExternalDeps{
		Interaction: f.interaction,
		Providers:   f.providers,
		State:       f.state,
		Sessions:    f.sessions,
		Events:      f.events,
		Options:     opts,
	})
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestExternalChallenge(t *testing.T) {
	f := newExternalFixture()
	ctx := context.Background()

	res, err := f.service().Challenge(ctx, dto.ExternalChallenge{Provider: "corp", ReturnURL: authorizeURL})
	require.NoError(t, err)
	require.NotEmpty(t, res.Nonce)
	claims, err := f.state.Parse(stateFrom(t, res.URL), "corp")
	require.NoError(t, err)
	require.Equal(t, authorizeURL, claims.ReturnURL)
	require.Equal(t, res.Nonce, claims.Nonce)
	u, err := url.Parse(res.URL)
	require.NoError(t, err)
	require.Equal(t, res.Nonce, u.Query().Get("nonce"))

	again, err := f.service().Challenge(ctx, dto.ExternalChallenge{Provider: "corp"})
	require.NoError(t, err)
	require.NotEqual(t, res.Nonce, again.Nonce)
	claims, err = f.state.Parse(stateFrom(t, again.URL), "corp")
	require.NoError(t, err)
	require.Equal(t, "~/", claims.ReturnURL)

	_, err = f.service().Challenge(ctx, dto.ExternalChallenge{Provider: "corp", ReturnURL: "https://evil.example/"})
	require.ErrorIs(t, err, ErrUnsafeRedirect)

	_, err = f.service().Challenge(ctx, dto.ExternalChallenge{Provider: "nope", ReturnURL: "/"})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = f.service().Challenge(ctx, dto.ExternalChallenge{ReturnURL: "/"})
	require.ErrorIs(t, err, ErrMissingProvider)
}

func TestExternalCallback_SignsInWithProviderAsIdP(t *testing.T) {
	f := newExternalFixture()
	f.interaction.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "x"}
	state, err := f.state.Sign("corp", authorizeURL, "n-1")
	require.NoError(t, err)

	out, err := f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Code: "good", State: state, Nonce: "n-1"})
	require.NoError(t, err)
	require.Equal(t, "n-1", f.providers.gotNonce)
	require.Equal(t, dto.OutcomeRedirectLocal, out.Kind)
	require.Equal(t, authorizeURL, out.RedirectURL)

	require.Len(t, f.sessions.signedIn, 1)
	require.Equal(t, "corp", f.sessions.signedIn[0].IdentityProvider)
	require.Equal(t, "ext-42", f.sessions.signedIn[0].SubjectID)
	require.Equal(t, []repository.EventKind{repository.EventUserLoginSuccess}, f.events.kinds())
	require.Equal(t, "x", f.events.events[0].ClientID)
}

func TestExternalCallback_HomeReturnURL(t *testing.T) {
	f := newExternalFixture()
	state, err := f.state.Sign("corp", "~/", "n-1")
	require.NoError(t, err)

	out, err := f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Code: "good", State: state, Nonce: "n-1"})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRedirectHome, out.Kind)
}

func TestExternalCallback_Failures(t *testing.T) {
	f := newExternalFixture()
	good, err := f.state.Sign("corp", "/", "n-1")
	require.NoError(t, err)

	_, err = f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Error: "access_denied"})
	require.ErrorIs(t, err, ErrExternalDenied)

	_, err = f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Code: "good", State: "garbage", Nonce: "n-1"})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Code: "bad", State: good, Nonce: "n-1"})
	require.ErrorIs(t, err, ErrExternalFailed)

	require.Empty(t, f.sessions.signedIn)
}

func TestExternalCallback_StateFromAnotherBrowserRejected(t *testing.T) {
	f := newExternalFixture()
	// state válido obtenido por otro browser: sin cookie o con otra cookie
	state, err := f.state.Sign("corp", "/", "attacker-nonce")
	require.NoError(t, err)

	for _, nonce := range []string{"", "victim-nonce"} {
		_, err = f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Code: "good", State: state, Nonce: nonce})
		require.ErrorIs(t, err, ErrInvalidState)
	}
	require.Empty(t, f.sessions.signedIn)
	require.Empty(t, f.providers.gotNonce)
}

func TestExternalCallback_ForeignReturnURLIsFatal(t *testing.T) {
	f := newExternalFixture()
	f.interaction.contexts["https://evil.example/"] = &repository.AuthorizationContext{ClientID: "x"}
	state, err := f.state.Sign("corp", "https://evil.example/", "n-1")
	require.NoError(t, err)

	out, err := f.service().Callback(context.Background(), httptest.NewRecorder(), dto.ExternalCallback{Code: "good", State: state, Nonce: "n-1"})
	require.ErrorIs(t, err, ErrUnsafeRedirect)
	require.Nil(t, out)
}

func TestExternalSignOutRedirect(t *testing.T) {
	f := newExternalFixture()

	u, err := f.service().SignOutRedirect(context.Background(), &dto.LoggedOut{LogoutID: "lo 1", ExternalScheme: "corp"})
	require.NoError(t, err)
	require.Equal(t, "https://corp.example/logout", u)
	require.Equal(t, "https://id.example/logout?logoutId=lo+1", f.providers.gotBack)

	_, err = f.service().SignOutRedirect(context.Background(), &dto.LoggedOut{LogoutID: "lo"})
	require.ErrorIs(t, err, ErrProviderUnsupported)

	f.providers.endURL = ""
	_, err = f.service().SignOutRedirect(context.Background(), &dto.LoggedOut{LogoutID: "lo", ExternalScheme: "corp"})
	require.ErrorIs(t, err, ErrProviderUnsupported)
}
