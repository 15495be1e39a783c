package authfakes

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-portal-server/auth"
	"github.com/jrsteele09/go-portal-server/provider"
)

var _ auth.ProviderAPI = (*FakeProvider)(nil)

// FakeProvider is a scriptable in-memory ProviderAPI with call counting.
type FakeProvider struct {
	lock sync.Mutex

	TokenResult   *provider.TokenResult
	RefreshResult *provider.TokenResult
	UserInfo      *provider.UserInfo

	ExchangeErr error
	UserInfoErr error
	RefreshErr  error
	RevokeErr   error

	EndSessionEndpoint string
	Revocable          bool

	ExchangeCalls int
	UserInfoCalls int
	RefreshCalls  int
	RevokeCalls   int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		TokenResult: &provider.TokenResult{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			IDToken:      "id-token",
			ExpiresAt:    4102444800, // 2100-01-01
			Groups:       []string{"ops"},
		},
		RefreshResult: &provider.TokenResult{
			AccessToken: "refreshed-access-token",
			ExpiresAt:   4102444800,
		},
		UserInfo: &provider.UserInfo{
			Sub:               "user-1",
			Email:             "jane@example.com",
			PreferredUsername: "jane",
		},
	}
}

func (f *FakeProvider) AuthorizationURL(codeChallenge, state string) string {
	return "https://idp.example.com/authorize?code_challenge=" + codeChallenge + "&state=" + state
}

func (f *FakeProvider) ExchangeCode(_ context.Context, _, _, expectedState, receivedState string) (*provider.TokenResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.ExchangeCalls++

	if receivedState != expectedState {
		return nil, errors.New("state mismatch reached the fake exchange")
	}
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	return f.TokenResult, nil
}

func (f *FakeProvider) FetchUserInfo(_ context.Context, _ string) (*provider.UserInfo, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.UserInfoCalls++

	if f.UserInfoErr != nil {
		return nil, f.UserInfoErr
	}
	return f.UserInfo, nil
}

func (f *FakeProvider) Refresh(_ context.Context, _ string) (*provider.TokenResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RefreshCalls++

	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	return f.RefreshResult, nil
}

func (f *FakeProvider) EndSessionURL(_, postLogoutRedirectURI string) string {
	if f.EndSessionEndpoint == "" {
		return postLogoutRedirectURI
	}
	return f.EndSessionEndpoint + "?post_logout_redirect_uri=" + postLogoutRedirectURI
}

func (f *FakeProvider) SupportsRevocation() bool {
	return f.Revocable
}

func (f *FakeProvider) RevokeToken(_ context.Context, _ string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RevokeCalls++
	return f.RevokeErr
}
