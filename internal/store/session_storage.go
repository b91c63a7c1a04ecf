package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// Persisted keys. The names match what the backend's web client used so a
// storage dump reads the same on either side.
const (
	KeyUserType     = "userType"
	KeyUsername     = "username"
	KeyFullName     = "fullName"
	KeyUserID       = "userId"
	KeyShopID       = "shopId"
	KeyShopName     = "shopName"
	KeyMarketerData = "marketerData"
	KeyRefreshing   = "isRefreshing"
)

// SessionStorage is the typed view over Storage used by the agent and CLIs.
type SessionStorage struct {
	kv     Storage
	sealer *Sealer
}

// NewSessionStorage wraps kv. sealer may be nil.
func NewSessionStorage(kv Storage, sealer *Sealer) *SessionStorage {
	return &SessionStorage{kv: kv, sealer: sealer}
}

// SaveIdentity persists a successful login, replacing everything stored for
// the previous one, including a pending refresh marker. Marketer-only keys
// are written only for marketers.
func (s *SessionStorage) SaveIdentity(ctx context.Context, id model.Identity) error {
	values := [][2]string{
		{KeyUserType, id.UserType},
		{KeyUsername, id.Username},
		{KeyFullName, id.FullName},
		{KeyUserID, id.UserID},
	}
	if id.IsMarketer() {
		if id.Marketer == nil {
			return errors.New("marketer login without marketer data")
		}
		blob, err := json.Marshal(id.Marketer)
		if err != nil {
			return fmt.Errorf("marshal marketer data: %w", err)
		}
		sealed, err := s.sealer.Seal(blob)
		if err != nil {
			return fmt.Errorf("seal marketer data: %w", err)
		}
		values = append(values,
			[2]string{KeyShopID, id.ShopID},
			[2]string{KeyShopName, id.ShopName},
			[2]string{KeyMarketerData, sealed},
		)
	}

	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear previous login: %w", err)
	}
	for _, kv := range values {
		if err := s.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// Identity loads the persisted login. It returns ErrNotFound when no login
// is stored.
func (s *SessionStorage) Identity(ctx context.Context) (model.Identity, error) {
	var id model.Identity
	userType, err := s.kv.Get(ctx, KeyUserType)
	if err != nil {
		return id, err
	}
	id.UserType = userType

	for _, f := range []struct {
		key string
		dst *string
	}{
		{KeyUsername, &id.Username},
		{KeyFullName, &id.FullName},
		{KeyUserID, &id.UserID},
		{KeyShopID, &id.ShopID},
		{KeyShopName, &id.ShopName},
	} {
		v, err := s.kv.Get(ctx, f.key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return id, err
		}
		*f.dst = v
	}

	raw, err := s.kv.Get(ctx, KeyMarketerData)
	switch {
	case errors.Is(err, ErrNotFound):
		return id, nil
	case err != nil:
		return id, err
	}
	blob, err := s.sealer.Open(raw)
	if err != nil {
		return id, fmt.Errorf("open marketer data: %w", err)
	}
	var md model.MarketerData
	if err := json.Unmarshal(blob, &md); err != nil {
		return id, fmt.Errorf("decode marketer data: %w", err)
	}
	id.Marketer = &md
	return id, nil
}

// MarkRefreshing records that the next start is a reload continuation of
// the current session.
func (s *SessionStorage) MarkRefreshing(ctx context.Context) error {
	return s.kv.Set(ctx, KeyRefreshing, "true")
}

// TakeRefreshing reports whether the reload marker is set and removes it.
func (s *SessionStorage) TakeRefreshing(ctx context.Context) (bool, error) {
	v, err := s.kv.Get(ctx, KeyRefreshing)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.kv.Remove(ctx, KeyRefreshing); err != nil {
		return false, err
	}
	return v == "true", nil
}

// Clear removes every persisted value.
func (s *SessionStorage) Clear(ctx context.Context) error {
	return s.kv.Clear(ctx)
}
