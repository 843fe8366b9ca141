package goSession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goSession/policy"
	"github.com/MrEthical07/goSession/storage"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// fakeAPI is the in-package AuthAPI+SubscriptionAPI double. Counters track
// network calls; block channels let tests hold a call in flight.
type fakeAPI struct {
	mu           sync.Mutex
	loginCalls   int
	refreshCalls int
	userCalls    int
	subCalls     int
	logoutCalls  int

	loginErr   error
	refreshErr error
	userErr    error
	userErrs   []error
	subErr     error
	logoutErr  error

	accessToken  string
	refreshToken string
	user         APIUser
	sub          APISubscription

	refreshBlock chan struct{}
	loginBlock   chan struct{}
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	block := f.loginBlock
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return LoginResult{}, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
		}
	}
	if f.loginErr != nil {
		return LoginResult{}, f.loginErr
	}
	return LoginResult{
		AccessToken:  f.accessToken,
		RefreshToken: f.refreshToken,
		User:         f.user,
	}, nil
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	f.mu.Lock()
	f.refreshCalls++
	block := f.refreshBlock
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return RefreshResult{}, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
		}
	}
	if f.refreshErr != nil {
		return RefreshResult{}, f.refreshErr
	}
	return RefreshResult{AccessToken: f.accessToken, RefreshToken: f.refreshToken}, nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context, accessToken string) (APIUser, error) {
	f.mu.Lock()
	f.userCalls++
	call := f.userCalls
	f.mu.Unlock()

	if len(f.userErrs) >= call {
		if err := f.userErrs[call-1]; err != nil {
			return APIUser{}, err
		}
	} else if f.userErr != nil {
		return APIUser{}, f.userErr
	}
	return f.user, nil
}

func (f *fakeAPI) CurrentSubscription(ctx context.Context, accessToken string) (APISubscription, error) {
	f.mu.Lock()
	f.subCalls++
	f.mu.Unlock()

	if f.subErr != nil {
		return APISubscription{}, f.subErr
	}
	return f.sub, nil
}

func (f *fakeAPI) Logout(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	f.logoutCalls++
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeAPI) calls() (login, refresh, user, sub, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.refreshCalls, f.userCalls, f.subCalls, f.logoutCalls
}

// authOnlyAPI hides the subscription capability.
type authOnlyAPI struct {
	inner *fakeAPI
}

func (a authOnlyAPI) Login(ctx context.Context, email, password string) (LoginResult, error) {
	return a.inner.Login(ctx, email, password)
}

func (a authOnlyAPI) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	return a.inner.Refresh(ctx, refreshToken)
}

func (a authOnlyAPI) CurrentUser(ctx context.Context, accessToken string) (APIUser, error) {
	return a.inner.CurrentUser(ctx, accessToken)
}

func (a authOnlyAPI) Logout(ctx context.Context, accessToken string) error {
	return a.inner.Logout(ctx, accessToken)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.API.CallTimeout = time.Second
	cfg.Guard.WaitTimeout = time.Second
	return cfg
}

func newTestAPI(t *testing.T) *fakeAPI {
	t.Helper()
	return &fakeAPI{
		accessToken:  signedToken(t, time.Now().Add(time.Hour)),
		refreshToken: "refresh-1",
		user: APIUser{
			ID:            "user-1",
			DisplayName:   "Alice",
			Email:         "u@x.com",
			EmailVerified: true,
			Role:          "Instructor",
		},
		sub: APISubscription{Tier: "premium", Status: "active", Active: true},
	}
}

func newTestManager(t *testing.T, api AuthAPI, medium storage.Medium) *Manager {
	t.Helper()

	m, err := New().
		WithConfig(testConfig()).
		WithAPI(api).
		WithStorage(medium).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return m
}

func TestLoginSuccess(t *testing.T) {
	api := newTestAPI(t)
	m := newTestManager(t, api, nil)

	user, err := m.Login(context.Background(), "u@x.com", "correct-password", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Role != policy.RoleInstructor {
		t.Fatalf("expected normalized instructor role, got %q", user.Role)
	}
	if m.State() != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %v", m.State())
	}
	if !m.IsAuthenticated() {
		t.Fatal("expected IsAuthenticated")
	}
	if _, ok := m.ValidAccessToken(); !ok {
		t.Fatal("expected a valid access token after login")
	}
	if got := m.AccessLevel(); got != policy.LevelAdvanced {
		t.Fatalf("premium active should resolve advanced, got %q", got)
	}
	if !m.CanAccessContent(policy.LevelAdvanced) {
		t.Fatal("expected advanced content access")
	}
	if m.Metrics().Value(MetricLoginSuccess) != 1 {
		t.Fatal("expected login success metric")
	}

	select {
	case <-m.Ready():
	default:
		t.Fatal("expected Ready resolved after login")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	api.loginErr = fmt.Errorf("%w: password mismatch", ErrInvalidCredentials)
	medium := storage.NewMemory()
	m := newTestManager(t, api, medium)

	_, err := m.Login(context.Background(), "u@x.com", "wrong", true)
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Reason != ReasonInvalidCredentials {
		t.Fatalf("expected invalid_credentials reason, got %q", authErr.Reason)
	}
	if m.State() == StateAuthenticated {
		t.Fatal("session must stay unauthenticated")
	}
	if _, ok := m.ValidAccessToken(); ok {
		t.Fatal("token store must stay empty")
	}
	if _, ok, _ := medium.Get(context.Background(), "gosession.credentials"); ok {
		t.Fatal("nothing may be persisted after a failed login")
	}
	if m.Metrics().Value(MetricLoginFailure) != 1 {
		t.Fatal("expected login failure metric")
	}
}

func TestLoginReasonMapping(t *testing.T) {
	cases := []struct {
		err    error
		reason AuthReason
	}{
		{fmt.Errorf("%w: too many attempts", ErrAccountLocked), ReasonAccountLocked},
		{fmt.Errorf("%w: confirm your email", ErrEmailUnverified), ReasonEmailUnverified},
	}
	for _, tc := range cases {
		api := newTestAPI(t)
		api.loginErr = tc.err
		m := newTestManager(t, api, nil)

		_, err := m.Login(context.Background(), "u@x.com", "pw", false)
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthenticationError, got %v", err)
		}
		if authErr.Reason != tc.reason {
			t.Fatalf("expected reason %q, got %q", tc.reason, authErr.Reason)
		}
	}
}

func TestLoginNetworkErrorNotAuthenticationError(t *testing.T) {
	api := newTestAPI(t)
	api.loginErr = fmt.Errorf("%w: connection refused", ErrNetwork)
	m := newTestManager(t, api, nil)

	_, err := m.Login(context.Background(), "u@x.com", "pw", false)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		t.Fatal("a transport failure is not an authentication rejection")
	}
}

func TestLoginRememberMePersists(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	m := newTestManager(t, api, medium)

	if _, err := m.Login(context.Background(), "u@x.com", "pw", true); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !m.PersistenceEnabled() {
		t.Fatal("expected persistence enabled")
	}
	if _, ok, _ := medium.Get(context.Background(), "gosession.credentials"); !ok {
		t.Fatal("expected persisted credential record")
	}
}

func TestLoginSubscriptionFailureFallsBackToFree(t *testing.T) {
	api := newTestAPI(t)
	api.subErr = fmt.Errorf("%w: status 503", ErrSubscriptionUnavailable)
	m := newTestManager(t, api, nil)

	if _, err := m.Login(context.Background(), "u@x.com", "pw", false); err != nil {
		t.Fatalf("login must not fail on subscription outage: %v", err)
	}
	sub := m.Subscription()
	if sub.Tier != policy.TierFree || !sub.Active {
		t.Fatalf("expected free-tier fallback, got %+v", sub)
	}
	if got := m.AccessLevel(); got != policy.LevelIntermediate {
		t.Fatalf("authenticated free tier should resolve intermediate, got %q", got)
	}
	if m.Metrics().Value(MetricSubscriptionFallback) != 1 {
		t.Fatal("expected subscription fallback metric")
	}
}

func TestLoginWithoutSubscriptionCapability(t *testing.T) {
	api := newTestAPI(t)
	m := newTestManager(t, authOnlyAPI{inner: api}, nil)

	if _, err := m.Login(context.Background(), "u@x.com", "pw", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, _, subCalls, _ := api.calls(); subCalls != 0 {
		t.Fatal("subscription endpoint must not be probed without the capability")
	}
	if sub := m.Subscription(); sub.Tier != policy.TierFree {
		t.Fatalf("expected free-tier default, got %+v", sub)
	}
}

func TestPremiumInactiveGraceLevel(t *testing.T) {
	api := newTestAPI(t)
	api.sub = APISubscription{Tier: "premium", Status: "cancelled", Active: false}
	m := newTestManager(t, api, nil)

	if _, err := m.Login(context.Background(), "u@x.com", "pw", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := m.AccessLevel(); got != policy.LevelIntermediate {
		t.Fatalf("premium inactive must degrade to intermediate, got %q", got)
	}
	if m.CanAccessContent(policy.LevelAdvanced) {
		t.Fatal("advanced content must be denied during grace")
	}
	if !m.CanAccessContent(policy.LevelBasic) {
		t.Fatal("basic content is always accessible")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	m := newTestManager(t, api, medium)

	if _, err := m.Login(context.Background(), "u@x.com", "pw", true); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	m.Logout(context.Background())

	if m.State() != StateAnonymous {
		t.Fatalf("expected anonymous state, got %v", m.State())
	}
	if _, ok := m.User(); ok {
		t.Fatal("expected user snapshot cleared")
	}
	if _, ok := m.ValidAccessToken(); ok {
		t.Fatal("expected token store cleared")
	}
	if _, ok, _ := medium.Get(context.Background(), "gosession.credentials"); ok {
		t.Fatal("expected persisted record cleared")
	}
	if _, _, _, _, logoutCalls := api.calls(); logoutCalls != 1 {
		t.Fatal("expected one server-side logout call")
	}
}

func TestLogoutServerFailureStillClearsLocally(t *testing.T) {
	api := newTestAPI(t)
	api.logoutErr = fmt.Errorf("%w: status 502", ErrNetwork)
	m := newTestManager(t, api, nil)

	if _, err := m.Login(context.Background(), "u@x.com", "pw", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	m.Logout(context.Background())

	if m.State() != StateAnonymous {
		t.Fatal("local logout must win over server failure")
	}
	if _, ok := m.ValidAccessToken(); ok {
		t.Fatal("expected token store cleared")
	}
}

func TestHasRole(t *testing.T) {
	api := newTestAPI(t)
	m := newTestManager(t, api, nil)

	if m.HasRole(policy.RoleInstructor) {
		t.Fatal("anonymous session holds no role")
	}
	if _, err := m.Login(context.Background(), "u@x.com", "pw", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !m.HasRole(policy.RoleInstructor, policy.RoleAdmin) {
		t.Fatal("expected instructor role match")
	}
	if m.HasRole(policy.RoleAdmin) {
		t.Fatal("unexpected admin role match")
	}
}

func TestAnonymousAccessLevelBasic(t *testing.T) {
	api := newTestAPI(t)
	m := newTestManager(t, api, nil)

	if got := m.AccessLevel(); got != policy.LevelBasic {
		t.Fatalf("anonymous access level must be basic, got %q", got)
	}
	if !m.CanAccessContent(policy.LevelBasic) {
		t.Fatal("basic content must always pass")
	}
	if m.CanAccessContent(policy.LevelIntermediate) {
		t.Fatal("intermediate content must be denied anonymously")
	}
}

func TestLoginTimeoutBounded(t *testing.T) {
	api := newTestAPI(t)
	api.loginBlock = make(chan struct{})
	m := newTestManager(t, api, nil)

	start := time.Now()
	_, err := m.Login(context.Background(), "u@x.com", "pw", false)
	if err == nil {
		t.Fatal("expected timeout failure")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork after timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("login exceeded the bounded timeout: %v", elapsed)
	}
	close(api.loginBlock)
}
