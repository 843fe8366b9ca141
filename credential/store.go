package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/storage"
)

// DefaultSkew is the safety margin subtracted from the decoded expiry before
// a token is handed out, covering server-side clock drift.
const DefaultSkew = 30 * time.Second

// Store defines a public type used by goSession APIs.
//
// Store is the single source of truth for credential material. The session
// Manager is its sole writer; all other components read. Safe for concurrent
// use.
type Store struct {
	medium storage.Medium
	skew   time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu   sync.RWMutex
	rec  Record
	user json.RawMessage
}

// NewStore describes the newstore operation and its observable behavior.
//
// A nil medium confines credentials to process memory; a nil clock uses
// time.Now. Skew values below zero fall back to [DefaultSkew].
func NewStore(medium storage.Medium, skew time.Duration, now func() time.Time, logger zerolog.Logger) *Store {
	if medium == nil {
		medium = storage.NewMemory()
	}
	if skew < 0 {
		skew = DefaultSkew
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		medium: medium,
		skew:   skew,
		now:    now,
		log:    logger,
	}
}

// SetCredentials decodes the access token's expiry and atomically replaces
// the full credential record. On [ErrMalformedToken] no state is changed:
// neither memory nor the medium observes a partial write. The record reaches
// the medium only when persist is true.
func (s *Store) SetCredentials(ctx context.Context, accessToken, refreshToken string, persist bool) error {
	expiresAt, err := DecodeExpiry(accessToken)
	if err != nil {
		return err
	}

	rec := Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Persist:      persist,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if persist {
		data, err := encodeRecord(rec, s.user)
		if err != nil {
			return fmt.Errorf("encode credential record: %w", err)
		}
		if err := s.medium.Set(ctx, recordKey, data); err != nil {
			return fmt.Errorf("persist credential record: %w", err)
		}
	} else {
		// A remembered session downgraded to a session-only login must not
		// leave stale persisted credentials behind.
		_ = s.medium.Delete(ctx, recordKey)
	}
	clearLegacy(ctx, s.medium)

	s.rec = rec
	return nil
}

// Load reads persisted credentials into memory: current schema first, then
// the legacy flat layout (migrated forward on success). Malformed or stale
// persisted data is logged, wiped from the medium, and treated as absent —
// Load degrades, it does not fail. The returned error is reserved for the
// medium itself (I/O, network).
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.medium.Get(ctx, recordKey)
	if err != nil {
		return fmt.Errorf("read credential record: %w", err)
	}

	var persisted persistedRecord
	if ok {
		persisted, err = decodeRecord(data)
		if err != nil {
			s.log.Error().Err(err).Msg("goSession: persisted credentials corrupt, discarding")
			_ = s.medium.Delete(ctx, recordKey)
			clearLegacy(ctx, s.medium)
			return nil
		}
	} else {
		persisted, ok = readLegacy(ctx, s.medium)
		if !ok {
			return nil
		}
	}

	// The persisted expiry is advisory. The token's own exp claim decides;
	// a token that no longer decodes is absent, not an error.
	expiresAt, err := DecodeExpiry(persisted.AccessToken)
	if err != nil {
		if persisted.RefreshToken == "" {
			s.log.Error().Err(err).Msg("goSession: persisted access token undecodable, discarding")
			_ = s.medium.Delete(ctx, recordKey)
			clearLegacy(ctx, s.medium)
			return nil
		}
		// Keep the refresh token: it alone can still restore the session.
		expiresAt = time.Time{}
		persisted.AccessToken = ""
	} else if stored := persisted.expiresAtTime(); !stored.IsZero() && !stored.Equal(expiresAt) {
		s.log.Warn().
			Time("stored", stored).
			Time("decoded", expiresAt).
			Msg("goSession: persisted expiry disagrees with token, trusting token")
	}

	s.rec = Record{
		AccessToken:  persisted.AccessToken,
		RefreshToken: persisted.RefreshToken,
		ExpiresAt:    expiresAt,
		Persist:      true,
	}
	s.user = persisted.User

	// Migrate legacy layouts to the current schema.
	if migrated, err := encodeRecord(s.rec, s.user); err == nil {
		if err := s.medium.Set(ctx, recordKey, migrated); err == nil {
			clearLegacy(ctx, s.medium)
		}
	}
	return nil
}

// ValidAccessToken returns the access token only while now < expiry - skew.
// An expired, near-expiry, or absent token reports absence; the store never
// exposes a token past its decoded expiry.
func (s *Store) ValidAccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.AccessToken == "" || s.rec.ExpiresAt.IsZero() {
		return "", false
	}
	if !s.now().Before(s.rec.ExpiresAt.Add(-s.skew)) {
		return "", false
	}
	return s.rec.AccessToken, true
}

// RefreshToken describes the refreshtoken operation and its observable behavior.
func (s *Store) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.RefreshToken == "" {
		return "", false
	}
	return s.rec.RefreshToken, true
}

// ExpiresAt returns the decoded expiry of the held access token, when any.
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.AccessToken == "" || s.rec.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return s.rec.ExpiresAt, true
}

// PersistenceEnabled describes the persistenceenabled operation and its observable behavior.
func (s *Store) PersistenceEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Persist
}

// StoreUserSnapshot attaches a serialized user snapshot to the record so a
// later restore can render optimistically before the network answers. The
// snapshot reaches the medium only for persisted sessions.
func (s *Store) StoreUserSnapshot(ctx context.Context, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = raw
	if !s.rec.Persist || s.rec.empty() {
		return nil
	}
	data, err := encodeRecord(s.rec, s.user)
	if err != nil {
		return fmt.Errorf("encode credential record: %w", err)
	}
	if err := s.medium.Set(ctx, recordKey, data); err != nil {
		return fmt.Errorf("persist credential record: %w", err)
	}
	return nil
}

// PersistedUser describes the persisteduser operation and its observable behavior.
func (s *Store) PersistedUser() (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.user) == 0 {
		return nil, false
	}
	return s.user, true
}

// Clear wipes credential material from memory and the medium. Idempotent and
// safe to call when already empty; medium failures are logged, not returned,
// because local logout must always win.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = Record{}
	s.user = nil
	if err := s.medium.Delete(ctx, recordKey); err != nil {
		s.log.Warn().Err(err).Msg("goSession: clearing persisted credentials failed")
	}
	clearLegacy(ctx, s.medium)
}
