package gallery

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"certificate-gallery/core"

	"github.com/sirupsen/logrus"
)

// ArchiveFolder is the directory entries are placed under inside the bundle.
const ArchiveFolder = "certificates"

// entryBase flattens a title into a single path segment so archive entries
// always land directly under ArchiveFolder, whatever the title contains.
func entryBase(title string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(title)
}

// BuildArchive bundles the selected certificates into a zip archive and
// returns its bytes. Resolution is best effort: an id that no longer appears
// in certs is skipped silently, so a selection that raced a delete still
// exports whatever remains. Entries are named {title}.{pdf|jpg} with the
// title flattened to a single path segment; when two
// certificates map to the same filename the later one wins.
func BuildArchive(certs []core.Certificate, ids []string) ([]byte, error) {
	byID := make(map[string]*core.Certificate, len(certs))
	for i := range certs {
		byID[certs[i].ID] = &certs[i]
	}

	// Resolve names first so collisions are settled before anything is
	// written; zip files have no replace operation.
	var order []string
	entries := make(map[string][]byte)
	for _, id := range ids {
		cert, ok := byID[id]
		if !ok {
			logrus.WithField("certificate_id", id).Debug("Skipping unresolved certificate during export")
			continue
		}

		data, err := base64.StdEncoding.DecodeString(cert.Content)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"certificate_id": id,
				"error":          err,
			}).Warn("Skipping certificate with undecodable payload during export")
			continue
		}

		name := fmt.Sprintf("%s/%s.%s", ArchiveFolder, entryBase(cert.Title), cert.FileExt())
		if _, exists := entries[name]; !exists {
			order = append(order, name)
		}
		entries[name] = data
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to add archive entry %s: %w", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
