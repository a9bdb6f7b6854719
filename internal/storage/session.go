package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maitred/internal/auth"
	"maitred/internal/models"
)

// Keys used by the dashboards
const (
	KeyAuthToken     = "auth-token"
	KeyUser          = "user"
	restaurantPrefix = "restaurant-"
)

// RestaurantKey is the cache key of a restaurant lookup
func RestaurantKey(slug string) string {
	return restaurantPrefix + slug
}

// Session is the signed-in dashboard state kept in the store
type Session struct {
	store *Store
}

// NewSession wraps store
func NewSession(store *Store) *Session {
	return &Session{store: store}
}

// SaveLogin stores the token and user returned by a successful login
func (s *Session) SaveLogin(token string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(KeyAuthToken, token); err != nil {
		return err
	}
	return s.store.Set(KeyUser, string(data))
}

// Token returns the stored bearer token, failing with auth.ErrNotAuthenticated
// when there is none or it has expired
func (s *Session) Token() (string, error) {
	e, err := s.store.Get(KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", auth.ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}
	if err := auth.Usable(e.Value, s.store.now()); err != nil {
		return "", err
	}
	return e.Value, nil
}

// User returns the signed-in user
func (s *Session) User() (*models.User, error) {
	e, err := s.store.Get(KeyUser)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(e.Value), &u); err != nil {
		return nil, fmt.Errorf("corrupt user entry: %w", err)
	}
	return &u, nil
}

// CachedRestaurant returns a cached restaurant lookup younger than ttl.
// A ttl of zero accepts any age.
func (s *Session) CachedRestaurant(slug string, ttl time.Duration) (*models.Restaurant, bool, error) {
	e, err := s.store.Get(RestaurantKey(slug))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if ttl > 0 && s.store.now().Sub(e.UpdatedAt) > ttl {
		return nil, false, nil
	}

	var r models.Restaurant
	if err := json.Unmarshal([]byte(e.Value), &r); err != nil {
		// a corrupt cache entry is treated as a miss
		return nil, false, nil
	}
	return &r, true, nil
}

// CacheRestaurant stores a restaurant lookup under its slug
func (s *Session) CacheRestaurant(r models.Restaurant) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.store.Set(RestaurantKey(r.Slug), string(data))
}

// Logout drops the token, the user and every cached restaurant
func (s *Session) Logout() error {
	keys, err := s.store.Keys(restaurantPrefix)
	if err != nil {
		return err
	}
	keys = append(keys, KeyAuthToken, KeyUser)
	for _, k := range keys {
		if err := s.store.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
