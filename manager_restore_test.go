package goSession

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/policy"
	"github.com/MrEthical07/goSession/storage"
)

// seedPersistedSession logs in with remember-me through a throwaway manager
// so the medium holds a realistic persisted record.
func seedPersistedSession(t *testing.T, api *fakeAPI, medium storage.Medium) {
	t.Helper()

	seed := newTestManager(t, api, medium)
	if _, err := seed.Login(context.Background(), "u@x.com", "pw", true); err != nil {
		t.Fatalf("seed login failed: %v", err)
	}
}

func TestRestoreFromPersistedCredentials(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	seedPersistedSession(t, api, medium)

	// Fresh manager over the same medium: a process restart.
	m := newTestManager(t, api, medium)
	state := m.Restore(context.Background())

	if state != StateAuthenticated {
		t.Fatalf("expected authenticated restore, got %v", state)
	}
	user, ok := m.User()
	if !ok || user.ID != "user-1" {
		t.Fatal("expected restored user snapshot")
	}
	if user.Role != policy.RoleInstructor {
		t.Fatalf("expected normalized role, got %q", user.Role)
	}
	if got := m.AccessLevel(); got != policy.LevelAdvanced {
		t.Fatalf("expected advanced level after restore, got %q", got)
	}
	if m.Metrics().Value(MetricRestoreAuthenticated) != 1 {
		t.Fatal("expected restore success metric")
	}

	select {
	case <-m.Ready():
	default:
		t.Fatal("expected Ready resolved after restore")
	}
}

func TestRestoreNoCredentialsAnonymous(t *testing.T) {
	api := newTestAPI(t)
	m := newTestManager(t, api, storage.NewMemory())

	if state := m.Restore(context.Background()); state != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", state)
	}
	if login, refresh, user, _, _ := api.calls(); login+refresh+user != 0 {
		t.Fatal("restore without credentials must not touch the network")
	}
	if m.Metrics().Value(MetricRestoreAnonymous) != 1 {
		t.Fatal("expected anonymous restore metric")
	}
}

func TestRestoreUserFetchFailsThenRefreshRetrySucceeds(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	seedPersistedSession(t, api, medium)

	// First CurrentUser call fails, the retry after refresh succeeds.
	api.userErrs = []error{fmt.Errorf("%w: flaky backend", ErrUnauthorized), nil}

	m := newTestManager(t, api, medium)
	if state := m.Restore(context.Background()); state != StateAuthenticated {
		t.Fatalf("expected authenticated after refresh-and-retry, got %v", state)
	}
	if _, refresh, _, _, _ := api.calls(); refresh != 1 {
		t.Fatalf("expected exactly one refresh attempt, got %d", refresh)
	}
}

func TestRestoreDoubleFailureClearsSession(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	seedPersistedSession(t, api, medium)

	api.userErr = fmt.Errorf("%w: persistent rejection", ErrUnauthorized)

	m := newTestManager(t, api, medium)
	if state := m.Restore(context.Background()); state != StateAnonymous {
		t.Fatalf("expected anonymous after double failure, got %v", state)
	}
	if _, ok := m.ValidAccessToken(); ok {
		t.Fatal("expected token store cleared")
	}
	if _, ok, _ := medium.Get(context.Background(), "gosession.credentials"); ok {
		t.Fatal("expected persisted record cleared")
	}
}

func TestRestoreExpiredAccessTokenUsesRefresh(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()

	// Persist an already-expired access token alongside a refresh token.
	expired := signedToken(t, time.Now().Add(-time.Minute))
	record, err := json.Marshal(map[string]any{
		"v":             2,
		"access_token":  expired,
		"refresh_token": "refresh-1",
		"expires_at":    time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("seed marshal failed: %v", err)
	}
	if err := medium.Set(context.Background(), "gosession.credentials", record); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := newTestManager(t, api, medium)
	if state := m.Restore(context.Background()); state != StateAuthenticated {
		t.Fatalf("expected authenticated via refresh, got %v", state)
	}
	if _, refresh, _, _, _ := api.calls(); refresh != 1 {
		t.Fatalf("expected one refresh call, got %d", refresh)
	}
	if _, ok := m.ValidAccessToken(); !ok {
		t.Fatal("expected fresh access token after refresh")
	}
}

func TestRestoreRefreshRejectedClearsSession(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()

	expired := signedToken(t, time.Now().Add(-time.Minute))
	record, _ := json.Marshal(map[string]any{
		"v":             2,
		"access_token":  expired,
		"refresh_token": "refresh-1",
		"expires_at":    time.Now().Add(-time.Minute).Unix(),
	})
	if err := medium.Set(context.Background(), "gosession.credentials", record); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	api.refreshErr = fmt.Errorf("%w: token revoked", ErrRefreshRejected)

	m := newTestManager(t, api, medium)
	if state := m.Restore(context.Background()); state != StateAnonymous {
		t.Fatalf("expected anonymous after rejected refresh, got %v", state)
	}
	if _, ok, _ := medium.Get(context.Background(), "gosession.credentials"); ok {
		t.Fatal("expected persisted record cleared")
	}
	if m.Metrics().Value(MetricRefreshRejected) != 1 {
		t.Fatal("expected refresh rejected metric")
	}
}

func TestRestoreTransientRefreshFailureKeepsPersistedRecord(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()

	expired := signedToken(t, time.Now().Add(-time.Minute))
	record, _ := json.Marshal(map[string]any{
		"v":             2,
		"access_token":  expired,
		"refresh_token": "refresh-1",
		"expires_at":    time.Now().Add(-time.Minute).Unix(),
	})
	if err := medium.Set(context.Background(), "gosession.credentials", record); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// The backend is unreachable at startup: this run resolves anonymous,
	// but the remembered session is not forfeited to a network blip.
	api.refreshErr = fmt.Errorf("%w: connection refused", ErrNetwork)

	m := newTestManager(t, api, medium)
	if state := m.Restore(context.Background()); state != StateAnonymous {
		t.Fatalf("expected anonymous for this run, got %v", state)
	}
	if _, ok, _ := medium.Get(context.Background(), "gosession.credentials"); !ok {
		t.Fatal("transient failure must not destroy the persisted record")
	}
	if m.Metrics().Value(MetricSessionInvalidated) != 0 {
		t.Fatal("transient failure must not count as an invalidation")
	}

	// Once the backend is back, the next start restores the session.
	api.refreshErr = nil
	recovered := newTestManager(t, api, medium)
	if state := recovered.Restore(context.Background()); state != StateAuthenticated {
		t.Fatalf("expected authenticated restore after recovery, got %v", state)
	}
}

func TestRestoreCorruptPersistedRecordAnonymous(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	if err := medium.Set(context.Background(), "gosession.credentials", []byte("%%garbage%%")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := newTestManager(t, api, medium)
	if state := m.Restore(context.Background()); state != StateAnonymous {
		t.Fatalf("expected anonymous for corrupt record, got %v", state)
	}
}

func TestRestoreSurfacesPersistedUserWhileRestoring(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	seedPersistedSession(t, api, medium)

	// Hold the restore in the user fetch and observe the optimistic snapshot.
	api.userErr = fmt.Errorf("%w: unreachable", ErrNetwork)
	api.refreshErr = fmt.Errorf("%w: unreachable", ErrNetwork)

	m := newTestManager(t, api, medium)
	state := m.Restore(context.Background())

	// Both fetch paths failed: the session resolves anonymous, but the
	// persisted snapshot was available during the restoring window and the
	// failure path cleared it again.
	if state != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", state)
	}
	if _, ok := m.User(); ok {
		t.Fatal("failed restore must clear the optimistic snapshot")
	}
}

func TestRestoreNeverHangs(t *testing.T) {
	api := newTestAPI(t)
	medium := storage.NewMemory()
	seedPersistedSession(t, api, medium)

	// A backend that answers nothing: every call blocks until the bounded
	// call timeout expires.
	api.refreshBlock = make(chan struct{})
	api.userErr = fmt.Errorf("%w: unreachable", ErrNetwork)
	defer close(api.refreshBlock)

	m := newTestManager(t, api, medium)

	done := make(chan SessionState, 1)
	go func() { done <- m.Restore(context.Background()) }()

	select {
	case state := <-done:
		if state != StateAnonymous {
			t.Fatalf("expected anonymous, got %v", state)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("restore hung past its bounded timeouts")
	}
}
