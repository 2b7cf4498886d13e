package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"certificate-gallery/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "certificates/"

// s3Store keeps each certificate as one JSON object keyed by its id.
type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

// certKey validates the id and resolves its object key. Ids are
// store-assigned ULIDs, but the guard keeps a crafted id from addressing
// arbitrary keys.
func certKey(id string) (string, error) {
	if id == "" || id == "." || id == ".." || path.Base(id) != id {
		return "", fmt.Errorf("invalid certificate id: must not be a path")
	}
	return keyPrefix + id, nil
}

func (s *s3Store) getCert(ctx context.Context, id string) (*core.Certificate, error) {
	key, err := certKey(id)
	if err != nil {
		return nil, err
	}

	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get certificate with id %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate data: %v", err)
	}

	var cert core.Certificate
	if err := json.Unmarshal(data, &cert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificate: %v", err)
	}
	return &cert, nil
}

func (s *s3Store) putCert(ctx context.Context, cert *core.Certificate) error {
	key, err := certKey(cert.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate: %v", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload certificate: %v", err)
	}
	return nil
}

// List returns every certificate matching the filter.
func (s *s3Store) List(ctx context.Context, filter core.Filter) ([]core.Certificate, error) {
	var certs []core.Certificate

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	}
	for {
		output, err := s.s3Client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list certificates: %v", err)
		}
		for _, obj := range output.Contents {
			id := path.Base(aws.ToString(obj.Key))
			cert, err := s.getCert(ctx, id)
			if err != nil {
				logrus.WithField("key", aws.ToString(obj.Key)).WithError(err).Warn("Failed to read certificate object, skipping")
				continue
			}
			if filter.Match(cert) {
				certs = append(certs, *cert)
			}
		}
		if !aws.ToBool(output.IsTruncated) {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	if certs == nil {
		certs = []core.Certificate{}
	}
	return certs, nil
}

// FindID retrieves a certificate by its id.
func (s *s3Store) FindID(ctx context.Context, id string) (*core.Certificate, error) {
	return s.getCert(ctx, id)
}

// Create stores a new certificate and returns its assigned id.
func (s *s3Store) Create(ctx context.Context, cert *core.Certificate) (string, error) {
	id := ulid.Make().String()
	now := time.Now()

	stored := *cert
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.putCert(ctx, &stored); err != nil {
		return "", err
	}
	logrus.WithField("certificate_id", id).Info("Certificate created successfully")
	return id, nil
}

// Update applies a partial patch to a stored certificate.
func (s *s3Store) Update(ctx context.Context, id string, patch core.Update) error {
	cert, err := s.getCert(ctx, id)
	if err != nil {
		return err
	}

	cert.Apply(patch)
	cert.UpdatedAt = time.Now()

	if err := s.putCert(ctx, cert); err != nil {
		return err
	}
	logrus.WithField("certificate_id", id).Info("Certificate updated successfully")
	return nil
}

// Delete removes the given certificates as one batch request.
func (s *s3Store) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, core.ErrNoIDs
	}

	// S3 batch delete reports success for keys that never existed, so
	// matches are counted up front to honor the none-match failure mode.
	var objects []s3types.ObjectIdentifier
	for _, id := range ids {
		key, err := certKey(id)
		if err != nil {
			return 0, err
		}
		_, err = s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			continue
		}
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(key)})
	}
	if len(objects) == 0 {
		logrus.WithField("count", len(ids)).Warn("No certificates matched for deletion")
		return 0, fmt.Errorf("no matching certificates: %w", core.ErrNotFound)
	}

	_, err := s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &s3types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete certificates: %v", err)
	}

	logrus.WithField("count", len(objects)).Info("Certificates deleted successfully")
	return len(objects), nil
}
