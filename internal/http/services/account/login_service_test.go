package account

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/providers"
	"github.com/stretchr/testify/require"
)

const authorizeURL = "/authorize?client=x"

type loginFixture struct {
	interaction *fakeInteraction
	schemes     *fakeSchemes
	clients     fakeClients
	signIn      *fakeSignIn
	events      *fakeEvents
	opts        Options
}

func newLoginFixture() *loginFixture {
	return &loginFixture{
		interaction: newFakeInteraction(),
		schemes: &fakeSchemes{list: []repository.ProviderDescriptor{
			{Scheme: "Google", DisplayName: "Google"},
			{Scheme: "Facebook", DisplayName: "Facebook"},
			{Scheme: "Windows"},
			{Scheme: "Contoso"},
		}},
		clients: fakeClients{},
		signIn:  &fakeSignIn{},
		events:  &fakeEvents{},
		opts:    DefaultOptions(),
	}
}

func (f *loginFixture) service() LoginService {
	return NewLoginService(LoginDeps{
		Interaction: f.interaction,
		Policies:    NewClientPolicyResolver(f.clients),
		Catalog:     providers.NewCatalog(f.schemes, "Windows"),
		SignIn:      f.signIn,
		Events:      f.events,
		Options:     f.opts,
	})
}

func schemesOf(ps []repository.ProviderDescriptor) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Scheme)
	}
	return out
}

func TestLoginPrepare_ForcedExternalProvider(t *testing.T) {
	f := newLoginFixture()
	f.interaction.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "x", IdP: "Contoso", LoginHint: "alice"}

	p, err := f.service().Prepare(context.Background(), authorizeURL)
	require.NoError(t, err)
	require.False(t, p.EnableLocalLogin)
	require.Equal(t, []string{"Contoso"}, schemesOf(p.VisibleProviders))
	require.True(t, p.IsExternalOnly)
	require.Equal(t, "Contoso", p.ExternalLoginScheme)
	require.Equal(t, "alice", p.Username)
	require.Equal(t, authorizeURL, p.ReturnURL)
}

func TestLoginPrepare_ForcedProviderSkipsCatalogAndPolicy(t *testing.T) {
	f := newLoginFixture()
	// esquema no registrado y client inexistente: igual manda el IdP forzado
	f.schemes.err = errors.New("catalog down")
	f.interaction.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "unknown", IdP: "AzureAD"}

	p, err := f.service().Prepare(context.Background(), authorizeURL)
	require.NoError(t, err)
	require.False(t, p.EnableLocalLogin)
	require.Equal(t, []string{"AzureAD"}, schemesOf(p.VisibleProviders))
	require.True(t, p.IsExternalOnly)
	require.Equal(t, "AzureAD", p.ExternalLoginScheme)
}

func TestLoginPrepare_ForcedLocalDisablesLocalLogin(t *testing.T) {
	f := newLoginFixture()
	f.interaction.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "x", IdP: repository.LocalIdentityProvider}

	p, err := f.service().Prepare(context.Background(), authorizeURL)
	require.NoError(t, err)
	require.False(t, p.EnableLocalLogin)
	require.Equal(t, []string{repository.LocalIdentityProvider}, schemesOf(p.VisibleProviders))
}

func TestLoginPrepare_ClientPolicyRestrictsProviders(t *testing.T) {
	f := newLoginFixture()
	f.schemes.list = []repository.ProviderDescriptor{
		{Scheme: "Google", DisplayName: "Google"},
		{Scheme: "Facebook", DisplayName: "Facebook"},
	}
	f.clients["x"] = &repository.ClientPolicy{
		ClientID:                     "x",
		Enabled:                      true,
		EnableLocalLogin:             false,
		IdentityProviderRestrictions: []string{"Google"},
	}
	f.interaction.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "x"}

	p, err := f.service().Prepare(context.Background(), authorizeURL)
	require.NoError(t, err)
	require.False(t, p.EnableLocalLogin)
	require.Equal(t, []string{"Google"}, schemesOf(p.VisibleProviders))
	require.True(t, p.IsExternalOnly)
}

func TestLoginPrepare_NoTransaction(t *testing.T) {
	f := newLoginFixture()

	p, err := f.service().Prepare(context.Background(), "")
	require.NoError(t, err)
	require.True(t, p.EnableLocalLogin)
	require.True(t, p.AllowRememberLogin)
	require.False(t, p.IsExternalOnly)
	// Contoso no tiene display name; Windows sí se muestra sin él
	require.ElementsMatch(t, []string{"Google", "Facebook", "Windows"}, schemesOf(p.VisibleProviders))
}

func TestLoginPrepare_GlobalLocalLoginDisabled(t *testing.T) {
	f := newLoginFixture()
	f.opts.AllowLocalLogin = false
	f.schemes.list = []repository.ProviderDescriptor{{Scheme: "Google", DisplayName: "Google"}}

	p, err := f.service().Prepare(context.Background(), "/somewhere")
	require.NoError(t, err)
	require.False(t, p.EnableLocalLogin)
	require.True(t, p.IsExternalOnly)
	require.Equal(t, "Google", p.ExternalLoginScheme)
}

func TestLoginPrepare_DisabledClientIsUnrestricted(t *testing.T) {
	f := newLoginFixture()
	f.clients["x"] = &repository.ClientPolicy{ClientID: "x", Enabled: false, IdentityProviderRestrictions: []string{"Google"}}
	f.interaction.contexts[authorizeURL] = &repository.AuthorizationContext{ClientID: "x"}

	p, err := f.service().Prepare(context.Background(), authorizeURL)
	require.NoError(t, err)
	require.True(t, p.EnableLocalLogin)
	require.Len(t, p.VisibleProviders, 3)
}

func TestLoginPrepare_CollaboratorUnavailable(t *testing.T) {
	f := newLoginFixture()
	f.interaction.err = errBoom

	_, err := f.service().Prepare(context.Background(), authorizeURL)
	require.ErrorIs(t, err, ErrCollaboratorUnavailable)
	require.ErrorIs(t, err, errBoom)
}

func TestLoginSubmit_CancelWithTransactionDeniesConsent(t *testing.T) {
	f := newLoginFixture()
	ac := &repository.AuthorizationContext{ClientID: "x"}
	f.interaction.contexts[authorizeURL] = ac

	out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
		Action:    dto.ActionCancel,
		ReturnURL: authorizeURL,
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeDenyAndRedirect, out.Kind)
	require.Equal(t, authorizeURL, out.RedirectURL)
	require.Len(t, f.interaction.grants, 1)
	require.Same(t, ac, f.interaction.grants[0].ac)
	require.True(t, f.interaction.grants[0].resp.Denied)
	require.Empty(t, f.signIn.calls)
}

func TestLoginSubmit_CancelWithoutTransactionGoesHome(t *testing.T) {
	f := newLoginFixture()

	out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
		Action:    dto.ActionCancel,
		ReturnURL: authorizeURL,
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRedirectHome, out.Kind)
	require.Equal(t, HomeURL, out.RedirectURL)
	require.Empty(t, f.interaction.grants)
}

func TestLoginSubmit_Success(t *testing.T) {
	tests := []struct {
		name      string
		returnURL string
		withCtx   bool
		kind      dto.OutcomeKind
		redirect  string
	}{
		{name: "transaction", returnURL: authorizeURL, withCtx: true, kind: dto.OutcomeRedirectLocal, redirect: authorizeURL},
		{name: "local url", returnURL: "/profile", kind: dto.OutcomeRedirectLocal, redirect: "/profile"},
		{name: "empty", returnURL: "", kind: dto.OutcomeRedirectHome, redirect: HomeURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoginFixture()
			if tt.withCtx {
				f.interaction.contexts[tt.returnURL] = &repository.AuthorizationContext{ClientID: "x"}
			}
			f.signIn.result = repository.SignInResult{Succeeded: true, User: &repository.User{ID: "u1", Username: "alice"}}

			out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
				Username:  "alice",
				Password:  "pw",
				ReturnURL: tt.returnURL,
			})
			require.NoError(t, err)
			require.Equal(t, tt.kind, out.Kind)
			require.Equal(t, tt.redirect, out.RedirectURL)
			require.Equal(t, []repository.EventKind{repository.EventUserLoginSuccess}, f.events.kinds())
			require.Equal(t, "u1", f.events.events[0].Subject)
			require.True(t, f.signIn.calls[0].lockout)
		})
	}
}

func TestLoginSubmit_SuccessWithForeignReturnURLIsFatal(t *testing.T) {
	f := newLoginFixture()
	f.signIn.result = repository.SignInResult{Succeeded: true, User: &repository.User{ID: "u1", Username: "alice"}}

	out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
		Username:  "alice",
		Password:  "pw",
		ReturnURL: "https://evil.example/",
	})
	require.ErrorIs(t, err, ErrUnsafeRedirect)
	require.Nil(t, out)
}

func TestLoginSubmit_ForeignReturnURLIsFatalEvenWithTransaction(t *testing.T) {
	f := newLoginFixture()
	// un InteractionService que devuelve contexto para una URL absoluta
	f.interaction.contexts["https://evil.example/"] = &repository.AuthorizationContext{ClientID: "x"}
	f.signIn.result = repository.SignInResult{Succeeded: true, User: &repository.User{ID: "u1", Username: "alice"}}

	out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
		Username:  "alice",
		Password:  "pw",
		ReturnURL: "https://evil.example/",
	})
	require.ErrorIs(t, err, ErrUnsafeRedirect)
	require.Nil(t, out)
}

func TestLoginSubmit_InvalidCredentialsReRenders(t *testing.T) {
	for _, locked := range []bool{false, true} {
		f := newLoginFixture()
		f.signIn.result = repository.SignInResult{IsLockedOut: locked}

		out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
			Username:      "alice",
			Password:      "wrong",
			RememberLogin: true,
			ReturnURL:     "/profile",
		})
		require.NoError(t, err)
		require.Equal(t, dto.OutcomeReRender, out.Kind)
		require.Equal(t, "alice", out.Prompt.Username)
		require.True(t, out.Prompt.RememberLogin)
		require.Equal(t, "/profile", out.Prompt.ReturnURL)
		// mismo mensaje con o sin lockout
		require.Equal(t, []string{f.opts.InvalidCredentialsErrorMessage}, out.Prompt.Errors)

		require.Equal(t, []repository.EventKind{repository.EventUserLoginFailure}, f.events.kinds())
		want := "invalid credentials"
		if locked {
			want = "locked out"
		}
		require.Equal(t, want, f.events.events[0].Detail)
	}
}

func TestLoginSubmit_MissingFields(t *testing.T) {
	f := newLoginFixture()

	out, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{Username: " "})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeReRender, out.Kind)
	require.Len(t, out.Prompt.Errors, 2)
	require.Empty(t, f.signIn.calls)
	require.Empty(t, f.events.events)
}

func TestLoginSubmit_RememberLoginHonorsOption(t *testing.T) {
	f := newLoginFixture()
	f.opts.AllowRememberLogin = false
	f.signIn.result = repository.SignInResult{Succeeded: true, User: &repository.User{ID: "u1", Username: "alice"}}

	_, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{
		Username:      "alice",
		Password:      "pw",
		RememberLogin: true,
	})
	require.NoError(t, err)
	require.False(t, f.signIn.calls[0].persistent)
}

func TestLoginSubmit_SignInFailureIsCollaboratorError(t *testing.T) {
	f := newLoginFixture()
	f.signIn.err = errBoom

	_, err := f.service().Submit(context.Background(), httptest.NewRecorder(), dto.LoginInput{Username: "a", Password: "b"})
	require.ErrorIs(t, err, ErrCollaboratorUnavailable)
}

func TestClientPolicyResolver(t *testing.T) {
	r := NewClientPolicyResolver(fakeClients{
		"on":  {ClientID: "on", Enabled: true},
		"off": {ClientID: "off"},
	})
	ctx := context.Background()

	p, err := r.Resolve(ctx, "on")
	require.NoError(t, err)
	require.Equal(t, "on", p.ClientID)

	for _, id := range []string{"", "off", "missing"} {
		p, err := r.Resolve(ctx, id)
		require.NoError(t, err)
		require.Nil(t, p, id)
	}
}
