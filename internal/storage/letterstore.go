package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// Record keys in the key-value store.
const (
	KeyUserProfile = "userProfile"
	KeyLetters     = "letters"
)

// ErrStoreWrite wraps every failed write. Callers surface it to the user.
var ErrStoreWrite = errors.New("could not save")

// ReadFailureFunc is notified when a record cannot be read or decoded and the
// store falls back to an empty result.
type ReadFailureFunc func(key string, err error)

// LetterStore persists the user profile and the letter history.
//
// Reads never fail: a missing or corrupt record reads as absent/empty. Writes
// replace the whole record.
type LetterStore interface {
	GetProfile() (*models.UserProfile, bool)
	SaveProfile(profile models.UserProfile) error
	ListLetters() []models.Letter
	ReplaceLetters(letters []models.Letter) error
}

type kvLetterStore struct {
	kv        KVStore
	logger    *slog.Logger
	onFailure ReadFailureFunc
}

// NewLetterStore creates a LetterStore over kv. logger may be nil, in which
// case slog.Default is used; onFailure may be nil.
func NewLetterStore(kv KVStore, logger *slog.Logger, onFailure ReadFailureFunc) LetterStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &kvLetterStore{kv: kv, logger: logger, onFailure: onFailure}
}

func (s *kvLetterStore) degraded(key string, err error) {
	s.logger.Warn("store read degraded to empty", "key", key, "error", err)
	if s.onFailure != nil {
		s.onFailure(key, err)
	}
}

// GetProfile returns the stored profile, or false when none is stored or the
// record is unreadable.
func (s *kvLetterStore) GetProfile() (*models.UserProfile, bool) {
	data, ok, err := s.kv.Get(KeyUserProfile)
	if err != nil {
		s.degraded(KeyUserProfile, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		s.degraded(KeyUserProfile, fmt.Errorf("decoding profile: %w", err))
		return nil, false
	}
	return &p, true
}

func (s *kvLetterStore) SaveProfile(profile models.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%w profile: encoding: %v", ErrStoreWrite, err)
	}
	if err := s.kv.Set(KeyUserProfile, data); err != nil {
		return fmt.Errorf("%w profile: %v", ErrStoreWrite, err)
	}
	return nil
}

// ListLetters returns letters in storage order.
func (s *kvLetterStore) ListLetters() []models.Letter {
	data, ok, err := s.kv.Get(KeyLetters)
	if err != nil {
		s.degraded(KeyLetters, err)
		return []models.Letter{}
	}
	if !ok {
		return []models.Letter{}
	}
	letters, err := DecodeLetters(data)
	if err != nil {
		s.degraded(KeyLetters, err)
		return []models.Letter{}
	}
	return letters
}

func (s *kvLetterStore) ReplaceLetters(letters []models.Letter) error {
	data, err := EncodeLetters(letters)
	if err != nil {
		return fmt.Errorf("%w letters: %v", ErrStoreWrite, err)
	}
	if err := s.kv.Set(KeyLetters, data); err != nil {
		return fmt.Errorf("%w letters: %v", ErrStoreWrite, err)
	}
	return nil
}

// LockHistory holds the history lock of the underlying store, when it has
// one, until the returned function is called.
func (s *kvLetterStore) LockHistory() (func() error, error) {
	if l, ok := s.kv.(Locker); ok {
		return l.Lock(KeyLetters)
	}
	return func() error { return nil }, nil
}

// EncodeLetters serialises letters as a JSON array. Timestamps are written in
// RFC 3339 with nanoseconds, so decoding restores the same instant.
func EncodeLetters(letters []models.Letter) ([]byte, error) {
	if letters == nil {
		letters = []models.Letter{}
	}
	data, err := json.Marshal(letters)
	if err != nil {
		return nil, fmt.Errorf("encoding letters: %w", err)
	}
	return data, nil
}

// DecodeLetters parses a JSON array produced by EncodeLetters.
func DecodeLetters(data []byte) ([]models.Letter, error) {
	var letters []models.Letter
	if err := json.Unmarshal(data, &letters); err != nil {
		return nil, fmt.Errorf("decoding letters: %w", err)
	}
	if letters == nil {
		letters = []models.Letter{}
	}
	return letters, nil
}
