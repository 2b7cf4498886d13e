package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"certificate-gallery/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// memStore implements core.CertificateStore with an in-process map.
type memStore struct {
	mu    sync.RWMutex
	certs map[string]core.Certificate
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{certs: make(map[string]core.Certificate)}
}

// List returns every certificate matching the filter.
func (s *memStore) List(ctx context.Context, filter core.Filter) ([]core.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certs := make([]core.Certificate, 0, len(s.certs))
	for _, cert := range s.certs {
		if filter.Match(&cert) {
			certs = append(certs, cert)
		}
	}
	logrus.WithField("count", len(certs)).Debug("Listed certificates")
	return certs, nil
}

// FindID retrieves a certificate by its id.
func (s *memStore) FindID(ctx context.Context, id string) (*core.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("certificate_id", id)
	if cert, ok := s.certs[id]; ok {
		log.Info("Certificate retrieved successfully")
		return &cert, nil
	}
	log.Warn("Certificate with specified ID not found")
	return nil, fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
}

// Create stores a new certificate and returns its assigned id.
func (s *memStore) Create(ctx context.Context, cert *core.Certificate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ulid.Make().String()
	now := time.Now()

	stored := *cert
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.certs[id] = stored

	logrus.WithFields(logrus.Fields{
		"certificate_id": id,
		"content_length": len(cert.Content),
	}).Info("Certificate created successfully")
	return id, nil
}

// Update applies a partial patch to a stored certificate.
func (s *memStore) Update(ctx context.Context, id string, patch core.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("certificate_id", id)
	cert, ok := s.certs[id]
	if !ok {
		log.Warn("Certificate not found for update")
		return fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
	}

	cert.Apply(patch)
	cert.UpdatedAt = time.Now()
	s.certs[id] = cert

	log.Info("Certificate updated successfully")
	return nil
}

// Delete removes the given certificates as one batch.
func (s *memStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, core.ErrNoIDs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.certs[id]; ok {
			delete(s.certs, id)
			deleted++
		}
	}
	if deleted == 0 {
		logrus.WithField("count", len(ids)).Warn("No certificates matched for deletion")
		return 0, fmt.Errorf("no matching certificates: %w", core.ErrNotFound)
	}

	logrus.WithField("count", deleted).Info("Certificates deleted successfully")
	return deleted, nil
}
