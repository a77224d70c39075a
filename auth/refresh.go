package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Storage keys.
const (
	KeyAuthToken   = "authToken"
	KeyRefreshData = "refreshData"
)

// RefreshRecord is the persisted refresh credential.
type RefreshRecord struct {
	Token string `json:"token"`
	// Expires is a Unix timestamp in seconds.
	Expires int64  `json:"expires"`
	URL     string `json:"url"`
}

// Usable reports whether the record can still be exchanged for a session token.
func (r RefreshRecord) Usable(now time.Time) bool {
	return r.Token != "" && r.URL != "" && time.Unix(r.Expires, 0).After(now)
}

// loadRefreshRecord reads the persisted refresh record. A missing, malformed or
// expired record yields a nil record and an error explaining why it can't be used.
func loadRefreshRecord(ctx context.Context, storage Storage, now time.Time) (*RefreshRecord, error) {
	raw, found, err := storage.Get(ctx, KeyRefreshData)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh record: %w", err)
	}
	if !found || raw == "" {
		return nil, fmt.Errorf("no refresh record stored")
	}
	var record RefreshRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to parse refresh record: %w", err)
	}
	if !record.Usable(now) {
		return nil, fmt.Errorf("refresh record expired at %s", time.Unix(record.Expires, 0).Format(time.RFC3339))
	}
	return &record, nil
}

// saveSession persists the session token and its refresh record.
func saveSession(ctx context.Context, storage Storage, url string, tok *ObtainedToken) error {
	data, err := json.Marshal(RefreshRecord{Token: tok.RefreshToken, Expires: tok.RefreshExpiresIn, URL: url})
	if err != nil {
		return fmt.Errorf("failed to encode refresh record: %w", err)
	}
	if err := storage.Set(ctx, KeyAuthToken, tok.Token); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if err := storage.Set(ctx, KeyRefreshData, string(data)); err != nil {
		return fmt.Errorf("failed to save refresh record: %w", err)
	}
	return nil
}
