package filesystem

import (
	"context"
	"errors"
	"testing"

	"certificate-gallery/core"
)

func setupStore(t *testing.T) *fsStore {
	t.Helper()
	return NewStore(t.TempDir())
}

func testCert(title, date, category string) *core.Certificate {
	return &core.Certificate{
		Title:    title,
		Issuer:   "Test Issuer",
		Date:     date,
		Category: category,
		Content:  "aGVsbG8=",
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testCert("AWS Cert", "2023-01-01", "Cloud"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cert, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() error = %v", err)
	}
	if cert.ID != id || cert.Title != "AWS Cert" {
		t.Errorf("FindID() = %+v, want stored certificate back", cert)
	}
}

func TestFindID_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.FindID(context.Background(), "01HMISSINGULIDVALUE000000")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FindID() error = %v, want ErrNotFound", err)
	}
}

func TestFindID_RejectsPathTraversal(t *testing.T) {
	store := setupStore(t)

	if _, err := store.FindID(context.Background(), "../escape"); err == nil {
		t.Error("FindID() accepted a path-traversal id")
	}
}

func TestList_AppliesFilter(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.Create(ctx, testCert("AWS Cert", "2023-01-01", "Cloud"))
	store.Create(ctx, testCert("Go Cert", "2024-01-01", "Programming"))

	certs, err := store.List(ctx, core.Filter{Title: "go"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(certs) != 1 || certs[0].Title != "Go Cert" {
		t.Errorf("List() = %d certificates, want the single title match", len(certs))
	}
}

func TestUpdate_PartialPatch(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, _ := store.Create(ctx, testCert("Old Title", "2023-01-01", "Cloud"))

	issuer := "New Issuer"
	if err := store.Update(ctx, id, core.Update{Issuer: &issuer}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	cert, _ := store.FindID(ctx, id)
	if cert.Issuer != "New Issuer" {
		t.Errorf("Update() issuer = %q, want %q", cert.Issuer, "New Issuer")
	}
	if cert.Title != "Old Title" {
		t.Errorf("Update() changed an unpatched field: title = %q", cert.Title)
	}
}

func TestDelete_Batch(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id1, _ := store.Create(ctx, testCert("One", "2023-01-01", "Misc"))
	id2, _ := store.Create(ctx, testCert("Two", "2023-02-01", "Misc"))

	deleted, err := store.Delete(ctx, []string{id1, id2})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Delete() = %d, want 2", deleted)
	}

	certs, _ := store.List(ctx, core.Filter{})
	if len(certs) != 0 {
		t.Errorf("List() after delete = %d certificates, want 0", len(certs))
	}
}

func TestDelete_EmptyIDs(t *testing.T) {
	store := setupStore(t)

	_, err := store.Delete(context.Background(), nil)
	if !errors.Is(err, core.ErrNoIDs) {
		t.Errorf("Delete(nil) error = %v, want ErrNoIDs", err)
	}
}

func TestDelete_NoneMatch(t *testing.T) {
	store := setupStore(t)

	_, err := store.Delete(context.Background(), []string{"01HMISSINGULIDVALUE000000"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
