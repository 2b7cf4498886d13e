// Package view serves the share-link target for individual certificates.
// A share URL is derived from the certificate id alone, so these paths stay
// stable for as long as the certificate exists.
package view

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"certificate-gallery/core"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// HandleCertificate serves the decoded payload of a shared certificate
// inline, with the media type and filename matching its stored kind.
func HandleCertificate(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		cert, err := store.FindID(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":          err,
				"certificate_id": id,
			}).Warn("Shared certificate not found")
			http.Error(w, "Certificate not found", http.StatusNotFound)
			return
		}

		data, err := base64.StdEncoding.DecodeString(cert.Content)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":          err,
				"certificate_id": id,
			}).Error("Failed to decode certificate payload")
			http.Error(w, "Failed to read certificate", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", cert.MediaType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.%s"`, cert.Title, cert.FileExt()))
		w.Write(data)
	}
}
