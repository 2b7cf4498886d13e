package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certificate-gallery/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// fsStore keeps each certificate as one JSON file named by its id.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

// certPath validates the id and resolves the file it is stored in. Ids are
// store-assigned ULIDs, but the guard keeps a crafted id from escaping the
// base directory.
func (s *fsStore) certPath(id string) (string, error) {
	filePath := filepath.Join(s.basePath, id)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absBase) {
		return "", fmt.Errorf("invalid certificate id: access denied")
	}
	return absFile, nil
}

func (s *fsStore) readCert(path string) (*core.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cert core.Certificate
	if err := json.Unmarshal(data, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

func (s *fsStore) writeCert(path string, cert *core.Certificate) error {
	data, err := json.Marshal(cert)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// List returns every stored certificate matching the filter.
func (s *fsStore) List(ctx context.Context, filter core.Filter) ([]core.Certificate, error) {
	log := logrus.WithField("path", s.basePath)

	files, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("Base directory does not exist, returning empty list.")
			return []core.Certificate{}, nil
		}
		log.WithError(err).Error("Failed to read base directory")
		return nil, err
	}

	certs := make([]core.Certificate, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		cert, err := s.readCert(filepath.Join(s.basePath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read certificate file %s, skipping", file.Name())
			continue
		}
		if filter.Match(cert) {
			certs = append(certs, *cert)
		}
	}

	log.Debugf("Listed %d certificates", len(certs))
	return certs, nil
}

// FindID retrieves a certificate by its id.
func (s *fsStore) FindID(ctx context.Context, id string) (*core.Certificate, error) {
	log := logrus.WithField("certificate_id", id)

	path, err := s.certPath(id)
	if err != nil {
		return nil, err
	}

	cert, err := s.readCert(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Certificate file not found")
			return nil, fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read certificate file")
		return nil, err
	}

	log.Info("Certificate retrieved successfully")
	return cert, nil
}

// Create stores a new certificate and returns its assigned id.
func (s *fsStore) Create(ctx context.Context, cert *core.Certificate) (string, error) {
	id := ulid.Make().String()
	path, err := s.certPath(id)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"certificate_id": id,
		"file_path":      path,
	})

	now := time.Now()
	stored := *cert
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.writeCert(path, &stored); err != nil {
		log.WithError(err).Error("Failed to create certificate")
		return "", err
	}

	log.Info("Certificate created successfully")
	return id, nil
}

// Update applies a partial patch to a stored certificate.
func (s *fsStore) Update(ctx context.Context, id string, patch core.Update) error {
	log := logrus.WithField("certificate_id", id)

	path, err := s.certPath(id)
	if err != nil {
		return err
	}

	cert, err := s.readCert(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Certificate not found for update")
			return fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read certificate for update")
		return err
	}

	cert.Apply(patch)
	cert.UpdatedAt = time.Now()

	if err := s.writeCert(path, cert); err != nil {
		log.WithError(err).Error("Failed to write updated certificate")
		return err
	}

	log.Info("Certificate updated successfully")
	return nil
}

// Delete removes the given certificates as one batch.
func (s *fsStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, core.ErrNoIDs
	}

	deleted := 0
	for _, id := range ids {
		path, err := s.certPath(id)
		if err != nil {
			return deleted, err
		}
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			logrus.WithField("certificate_id", id).WithError(err).Error("Failed to delete certificate file")
			return deleted, err
		}
		deleted++
	}
	if deleted == 0 {
		logrus.WithField("count", len(ids)).Warn("No certificates matched for deletion")
		return 0, fmt.Errorf("no matching certificates: %w", core.ErrNotFound)
	}

	logrus.WithField("count", deleted).Info("Certificates deleted successfully")
	return deleted, nil
}
