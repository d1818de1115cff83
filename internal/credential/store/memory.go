package store

import (
	"context"
	"sync"

	"github.com/seecr/gmh-registration-service/internal/credential/models"
	"github.com/seecr/gmh-registration-service/internal/credential/service"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	"github.com/seecr/gmh-registration-service/pkg/platform/sentinel"
)

var _ service.Store = (*InMemory)(nil)

// InMemory is a map-backed registrant and credential store.
type InMemory struct {
	mu          sync.RWMutex
	registrants map[domain.RegistrantID]*models.Registrant
	credentials map[domain.RegistrantID]*models.Credential
	nextID      int64
	nextCredID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		registrants: make(map[domain.RegistrantID]*models.Registrant),
		credentials: make(map[domain.RegistrantID]*models.Credential),
	}
}

// CreateRegistrant assigns the next ID to registrant and stores a copy.
func (s *InMemory) CreateRegistrant(_ context.Context, registrant *models.Registrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.registrants {
		if r.GroupID == registrant.GroupID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.nextID++
	registrant.ID = domain.RegistrantID(s.nextID)
	stored := *registrant
	s.registrants[stored.ID] = &stored
	return nil
}

func (s *InMemory) FindRegistrantByGroupID(_ context.Context, groupID string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.registrants {
		if r.GroupID == groupID {
			found := *r
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindIdentityByToken(_ context.Context, token string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, c := range s.credentials {
		if c.Token == token {
			return s.registrants[c.RegistrantID].Identity(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindCredentialByUsername(_ context.Context, username string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.credentials {
		if c.Username == username {
			found := *c
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// SetCredential creates or updates the credential of registrantID. The
// username must not belong to another registrant.
func (s *InMemory) SetCredential(_ context.Context, registrantID domain.RegistrantID, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrants[registrantID]; !ok {
		return sentinel.ErrNotFound
	}
	for owner, c := range s.credentials {
		if c.Username == username && owner != registrantID {
			return sentinel.ErrAlreadyUsed
		}
	}
	if c, ok := s.credentials[registrantID]; ok {
		c.Username = username
		c.PasswordHash = passwordHash
		return nil
	}
	s.nextCredID++
	s.credentials[registrantID] = &models.Credential{
		ID:           s.nextCredID,
		RegistrantID: registrantID,
		Username:     username,
		PasswordHash: passwordHash,
	}
	return nil
}

func (s *InMemory) SetToken(_ context.Context, credentialID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.ID == credentialID {
			c.Token = token
			return nil
		}
	}
	return sentinel.ErrNotFound
}
