package credential

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/storage"
)

// Persisted layout. One versioned record under recordKey. The three legacy
// keys are the flat layout older front-end builds wrote; a successful legacy
// read is migrated forward and the legacy keys are removed.
const (
	recordKey            = "gosession.credentials"
	schemaVersionCurrent = 2

	legacyAccessKey  = "auth_access_token"
	legacyRefreshKey = "auth_refresh_token"
	legacyUserKey    = "auth_user"
)

var errSchemaVersion = errors.New("unsupported credential schema version")

type persistedRecord struct {
	Version      int             `json:"v"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresAt    int64           `json:"expires_at"`
	User         json.RawMessage `json:"user,omitempty"`
}

func encodeRecord(rec Record, user json.RawMessage) ([]byte, error) {
	return json.Marshal(persistedRecord{
		Version:      schemaVersionCurrent,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    rec.ExpiresAt.Unix(),
		User:         user,
	})
}

func decodeRecord(data []byte) (persistedRecord, error) {
	var rec persistedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return persistedRecord{}, err
	}
	if rec.Version != schemaVersionCurrent {
		return persistedRecord{}, errSchemaVersion
	}
	if rec.AccessToken == "" && rec.RefreshToken == "" {
		return persistedRecord{}, errors.New("empty credential record")
	}
	return rec, nil
}

// readLegacy assembles a record from the flat legacy keys. A layout with no
// access token at all reads as absent; partial layouts beyond that are
// tolerated because the access token alone is enough to restore.
func readLegacy(ctx context.Context, medium storage.Medium) (persistedRecord, bool) {
	access, ok, err := medium.Get(ctx, legacyAccessKey)
	if err != nil || !ok || len(access) == 0 {
		return persistedRecord{}, false
	}
	rec := persistedRecord{
		Version:     schemaVersionCurrent,
		AccessToken: string(access),
	}
	if refresh, ok, err := medium.Get(ctx, legacyRefreshKey); err == nil && ok {
		rec.RefreshToken = string(refresh)
	}
	if user, ok, err := medium.Get(ctx, legacyUserKey); err == nil && ok && json.Valid(user) {
		rec.User = json.RawMessage(user)
	}
	return rec, true
}

func clearLegacy(ctx context.Context, medium storage.Medium) {
	_ = medium.Delete(ctx, legacyAccessKey)
	_ = medium.Delete(ctx, legacyRefreshKey)
	_ = medium.Delete(ctx, legacyUserKey)
}

// expiresAtTime interprets the persisted expiry for display purposes only.
func (p persistedRecord) expiresAtTime() time.Time {
	if p.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.Unix(p.ExpiresAt, 0)
}
