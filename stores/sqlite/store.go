package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"certificate-gallery/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	tableStmt := `
	CREATE TABLE IF NOT EXISTS certificates (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		issuer TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		content TEXT NOT NULL,
		is_document INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`
	if _, err = db.Exec(tableStmt); err != nil {
		log.Fatalf("failed to create certificates table: %v", err)
	}

	return &sqliteStore{db}
}

// List returns every certificate matching the filter. Category narrowing
// and, for ASCII queries, title narrowing are pushed into SQL; everything
// else is applied in Go. Date bounds stay in Go so records with
// unparseable dates keep the include-rather-than-hide behavior that
// string comparison in SQL could not reproduce, and non-ASCII title
// queries stay in Go because SQLite's lower() only folds ASCII.
func (s *sqliteStore) List(ctx context.Context, filter core.Filter) ([]core.Certificate, error) {
	query := "SELECT id, title, issuer, date, category, content, is_document, page_count, created_at, updated_at FROM certificates"
	var conds []string
	var args []any
	if q := strings.TrimSpace(filter.Title); q != "" && isASCII(q) {
		conds = append(conds, "instr(lower(title), lower(?)) > 0")
		args = append(args, q)
	}
	if filter.Category != "" && filter.Category != core.CategoryAll {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logrus.WithError(err).Error("Failed to list certificates")
		return nil, err
	}
	defer rows.Close()

	var certs []core.Certificate
	for rows.Next() {
		var cert core.Certificate
		if err := rows.Scan(&cert.ID, &cert.Title, &cert.Issuer, &cert.Date, &cert.Category,
			&cert.Content, &cert.IsDocument, &cert.PageCount, &cert.CreatedAt, &cert.UpdatedAt); err != nil {
			return nil, err
		}
		if filter.Match(&cert) {
			certs = append(certs, cert)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []core.Certificate{}
	}
	return certs, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// FindID retrieves a certificate by its id.
func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.Certificate, error) {
	log := logrus.WithField("certificate_id", id)

	var cert core.Certificate
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, issuer, date, category, content, is_document, page_count, created_at, updated_at FROM certificates WHERE id = ?", id).
		Scan(&cert.ID, &cert.Title, &cert.Issuer, &cert.Date, &cert.Category,
			&cert.Content, &cert.IsDocument, &cert.PageCount, &cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("Certificate with specified ID not found")
			return nil, fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve certificate")
		return nil, err
	}
	return &cert, nil
}

// Create stores a new certificate and returns its assigned id.
func (s *sqliteStore) Create(ctx context.Context, cert *core.Certificate) (string, error) {
	id := ulid.Make().String()
	now := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"certificate_id": id,
		"content_length": len(cert.Content),
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO certificates (id, title, issuer, date, category, content, is_document, page_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, cert.Title, cert.Issuer, cert.Date, cert.Category, cert.Content, cert.IsDocument, cert.PageCount, now, now)
	if err != nil {
		log.WithError(err).Error("Failed to create certificate")
		return "", err
	}
	log.Info("Certificate created successfully")
	return id, nil
}

// Update applies a partial patch inside a transaction.
func (s *sqliteStore) Update(ctx context.Context, id string, patch core.Update) error {
	log := logrus.WithField("certificate_id", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	cert := &core.Certificate{}
	err = tx.QueryRowContext(ctx,
		"SELECT title, issuer, date, category, content, is_document, page_count FROM certificates WHERE id = ?", id).
		Scan(&cert.Title, &cert.Issuer, &cert.Date, &cert.Category, &cert.Content, &cert.IsDocument, &cert.PageCount)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("Certificate not found for update")
			return fmt.Errorf("certificate with id %s: %w", id, core.ErrNotFound)
		}
		return err
	}

	cert.Apply(patch)

	_, err = tx.ExecContext(ctx,
		"UPDATE certificates SET title = ?, issuer = ?, date = ?, category = ?, content = ?, is_document = ?, page_count = ?, updated_at = ? WHERE id = ?",
		cert.Title, cert.Issuer, cert.Date, cert.Category, cert.Content, cert.IsDocument, cert.PageCount, time.Now(), id)
	if err != nil {
		log.WithError(err).Error("Failed to update certificate")
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Certificate updated successfully")
	return nil
}

// Delete removes the given certificates in one transaction.
func (s *sqliteStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, core.ErrNoIDs
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM certificates WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		logrus.WithError(err).Error("Failed to delete certificates")
		return 0, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		logrus.WithField("count", len(ids)).Warn("No certificates matched for deletion")
		return 0, fmt.Errorf("no matching certificates: %w", core.ErrNotFound)
	}

	logrus.WithField("count", deleted).Info("Certificates deleted successfully")
	return int(deleted), nil
}
