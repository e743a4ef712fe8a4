// Package accounts is the in-memory user store: registration, friend codes
// and avatar references. The routing core reads it through core.UserStore.
package accounts

import (
	"crypto/rand"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/domain"
)

var ErrNoAccount = errors.New("no such account")

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLen = 6

type Account struct {
	User       domain.User
	FriendCode domain.FriendCode
}

type Store struct {
	mu     sync.RWMutex
	byID   map[domain.UserID]*Account
	byCode map[domain.FriendCode]domain.UserID
}

func NewStore() *Store {
	return &Store{
		byID:   make(map[domain.UserID]*Account),
		byCode: make(map[domain.FriendCode]domain.UserID),
	}
}

// Register creates a fresh account with a unique friend code.
func (s *Store) Register(username string) (Account, error) {
	u, err := domain.NewUser(username)
	if err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.freshCode()
	acc := &Account{User: *u, FriendCode: code}
	s.byID[u.ID] = acc
	s.byCode[code] = u.ID
	log.Info().Str("module", "accounts").Str("user", string(u.ID)).Str("code", string(code)).Msg("account registered")
	return *acc, nil
}

func (s *Store) Exists(id domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

func (s *Store) DisplayName(id domain.UserID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.byID[id]; ok {
		return acc.User.Username, true
	}
	return "", false
}

func (s *Store) Get(id domain.UserID) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.byID[id]; ok {
		return *acc, true
	}
	return Account{}, false
}

// ByCode resolves a friend code to the account that owns it.
func (s *Store) ByCode(code domain.FriendCode) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return Account{}, false
	}
	return *s.byID[id], true
}

// SetAvatar records the uploaded avatar URL on the account.
func (s *Store) SetAvatar(id domain.UserID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[id]
	if !ok {
		return ErrNoAccount
	}
	acc.User.Avatar = url
	return nil
}

// freshCode generates a code not already in use. Caller holds the lock.
func (s *Store) freshCode() domain.FriendCode {
	buf := make([]byte, codeLen)
	for {
		_, _ = rand.Read(buf)
		for i := range buf {
			buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := domain.FriendCode(buf)
		if _, taken := s.byCode[code]; !taken {
			return code
		}
	}
}
