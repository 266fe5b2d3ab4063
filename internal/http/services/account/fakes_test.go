package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/interaction"
	"github.com/devinmiller/Identity/internal/providers"
	"github.com/devinmiller/Identity/internal/session"
)

var errBoom = errors.New("boom")

type grant struct {
	ac   *repository.AuthorizationContext
	resp repository.ConsentResponse
}

type fakeInteraction struct {
	contexts map[string]*repository.AuthorizationContext
	logouts  map[string]*repository.LogoutContext
	grants   []grant
	created  []*repository.Session
	err      error
}

func newFakeInteraction() *fakeInteraction {
	return &fakeInteraction{
		contexts: map[string]*repository.AuthorizationContext{},
		logouts:  map[string]*repository.LogoutContext{},
	}
}

func (f *fakeInteraction) GetAuthorizationContext(_ context.Context, returnURL string) (*repository.AuthorizationContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contexts[returnURL], nil
}

func (f *fakeInteraction) GetLogoutContext(_ context.Context, logoutID string) (*repository.LogoutContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	if lc, ok := f.logouts[logoutID]; ok {
		return lc, nil
	}
	return &repository.LogoutContext{LogoutID: logoutID, ShowSignoutPrompt: true}, nil
}

func (f *fakeInteraction) CreateLogoutContext(_ context.Context, s *repository.Session) (string, error) {
	f.created = append(f.created, s)
	return fmt.Sprintf("lo-%d", len(f.created)), nil
}

func (f *fakeInteraction) GrantConsent(_ context.Context, ac *repository.AuthorizationContext, resp repository.ConsentResponse) error {
	f.grants = append(f.grants, grant{ac: ac, resp: resp})
	return nil
}

type fakeStarter struct {
	req  interaction.EndSessionRequest
	sess *repository.Session
	id   string
	err  error
}

func (f *fakeStarter) BeginClientLogout(_ context.Context, req interaction.EndSessionRequest, sess *repository.Session) (string, error) {
	f.req, f.sess = req, sess
	return f.id, f.err
}

type fakeSchemes struct {
	list    []repository.ProviderDescriptor
	signOut map[string]bool
	err     error
}

func (f *fakeSchemes) ListAuthenticationSchemes(context.Context) ([]repository.ProviderDescriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeSchemes) SchemeSupportsSignOut(_ context.Context, scheme string) (bool, error) {
	return f.signOut[scheme], nil
}

type fakeClients map[string]*repository.ClientPolicy

func (f fakeClients) FindEnabledClient(_ context.Context, id string) (*repository.ClientPolicy, error) {
	c, ok := f[id]
	if !ok || !c.Enabled {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type fakeSessions struct {
	current    *repository.Session
	signedIn   []session.Principal
	signedOut  bool
	signOutErr error
}

func (f *fakeSessions) Current(*http.Request) (*repository.Session, error) {
	if f.signedOut {
		return nil, nil
	}
	return f.current, nil
}

func (f *fakeSessions) SignIn(_ context.Context, _ http.ResponseWriter, p session.Principal, persistent bool) (*repository.Session, error) {
	f.signedIn = append(f.signedIn, p)
	f.current = &repository.Session{
		ID:               "s1",
		SubjectID:        p.SubjectID,
		Username:         p.Username,
		IdentityProvider: p.IdentityProvider,
		Persistent:       persistent,
	}
	f.signedOut = false
	return f.current, nil
}

func (f *fakeSessions) SignOut(context.Context, http.ResponseWriter, *http.Request) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.signedOut = true
	return nil
}

type signInCall struct {
	username   string
	persistent bool
	lockout    bool
}

type fakeSignIn struct {
	result repository.SignInResult
	err    error
	calls  []signInCall
	users  []*repository.User
}

func (f *fakeSignIn) PasswordSignIn(_ context.Context, _ http.ResponseWriter, username, _ string, persistent, lockoutOnFailure bool) (repository.SignInResult, error) {
	f.calls = append(f.calls, signInCall{username: username, persistent: persistent, lockout: lockoutOnFailure})
	return f.result, f.err
}

func (f *fakeSignIn) SignIn(_ context.Context, _ http.ResponseWriter, u *repository.User, _ bool) error {
	f.users = append(f.users, u)
	return f.err
}

type fakeEvents struct {
	events []repository.Event
}

func (f *fakeEvents) Raise(_ context.Context, ev repository.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) kinds() []repository.EventKind {
	out := make([]repository.EventKind, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fakeProviders struct {
	known    map[string]bool
	identity *providers.ExternalIdentity
	endURL   string
	gotBack  string
	gotNonce string
}

func (f *fakeProviders) Known(name string) bool { return f.known[name] }

func (f *fakeProviders) AuthCodeURL(name, state, nonce, _ string) (string, error) {
	return "https://idp.example/authorize?scheme=" + name + "&state=" + state + "&nonce=" + nonce, nil
}

func (f *fakeProviders) EndSessionURL(name, back, _ string) (string, error) {
	if f.endURL == "" {
		return "", providers.ErrSignOutUnsupported
	}
	f.gotBack = back
	return f.endURL, nil
}

func (f *fakeProviders) Exchange(_ context.Context, name, code, nonce string) (*providers.ExternalIdentity, error) {
	f.gotNonce = nonce
	if f.identity == nil || code != "good" {
		return nil, errBoom
	}
	id := *f.identity
	id.Scheme = name
	return &id, nil
}
