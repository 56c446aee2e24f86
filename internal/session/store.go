package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/tempmail/internal/credential"
	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
)

// sessionKey is the fixed keyring key under which the single active
// session is persisted. Login overwrites it wholesale; logout removes it.
const sessionKey = "session"

// PlaceholderPassword is the fixed password used for every provisioned
// mailbox. The mailbox is disposable; the password only exists because
// the provider requires one for re-authentication.
const PlaceholderPassword = "TempPassword123!"

// ErrAddressTaken indicates that the requested address belongs to an
// account provisioned by someone else: creation reported a conflict and
// the placeholder password did not authenticate.
var ErrAddressTaken = errors.New(
	"address is already taken by a different owner",
)

// ErrNoSession indicates an operation that needs a logged-in session
// found none persisted.
var ErrNoSession = errors.New("no active session")

// Provider is the subset of the mailtm client used during login.
type Provider interface {
	CreateAccount(ctx context.Context, address, password string) (*mailtm.Account, error)
	Token(ctx context.Context, address, password string) (string, error)
}

// Keyring abstracts the credential backend so tests can substitute an
// in-memory implementation.
type Keyring interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// systemKeyring delegates to the OS keyring via the credential package.
type systemKeyring struct{}

func (systemKeyring) Get(key string) (string, error)  { return credential.Get(key) }
func (systemKeyring) Set(key, value string) error     { return credential.Set(key, value) }
func (systemKeyring) Delete(key string) error         { return credential.Delete(key) }

// Store owns the local identity of the active mailbox. The rest of the
// application treats its value as a single optional: present means
// logged in.
type Store struct {
	provider Provider
	ring     Keyring
}

// New creates a session store backed by the system keyring.
func New(provider Provider) *Store {
	return NewWithKeyring(provider, systemKeyring{})
}

// NewWithKeyring creates a session store with an explicit credential
// backend.
func NewWithKeyring(provider Provider, ring Keyring) *Store {
	return &Store{provider: provider, ring: ring}
}

// Load reads the persisted session, if any. Missing or corrupt data is
// treated as "no session"; the caller never fails on load.
func (s *Store) Load() (*model.Session, bool) {
	raw, err := s.ring.Get(sessionKey)
	if err != nil {
		return nil, false
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, false
	}
	if sess.Address == "" || sess.Token == "" {
		return nil, false
	}

	return &sess, true
}

// Current returns the persisted session or ErrNoSession.
func (s *Store) Current() (*model.Session, error) {
	sess, ok := s.Load()
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// CreateOrLogin provisions localPart@domain with the placeholder
// password, or logs into it when it already exists under our
// credentials. On success the resulting session is persisted and
// returned.
func (s *Store) CreateOrLogin(
	ctx context.Context,
	localPart string,
	domain string,
) (*model.Session, error) {
	if localPart == "" || domain == "" {
		return nil, errors.New("username and domain are required")
	}

	address := fmt.Sprintf("%s@%s", localPart, domain)

	created := true
	if _, err := s.provider.CreateAccount(ctx, address, PlaceholderPassword); err != nil {
		if !errors.Is(err, mailtm.ErrAccountExists) {
			return nil, err
		}
		// The address is registered already. It may still be ours from
		// an earlier run; authentication below settles it.
		created = false
	}

	token, err := s.provider.Token(ctx, address, PlaceholderPassword)
	if err != nil {
		if !created {
			// We did not create the account and the placeholder
			// password does not open it, so it belongs to someone else.
			return nil, fmt.Errorf("logging into %s: %w", address, ErrAddressTaken)
		}
		return nil, err
	}

	sess := &model.Session{
		Address:  address,
		Password: PlaceholderPassword,
		Token:    token,
	}

	if err := s.persist(sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Logout clears the persisted session. The provider offers no token
// revocation endpoint, so there is no remote side effect.
func (s *Store) Logout() error {
	if err := s.ring.Delete(sessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// persist writes the session to the keyring, replacing any prior value.
func (s *Store) persist(sess *model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.ring.Set(sessionKey, string(raw)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}
