package certificates

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"certificate-gallery/core"
	"certificate-gallery/gallery"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

type (
	CreateRequest struct {
		Title       string `json:"title"`
		Issuer      string `json:"issuer"`
		Date        string `json:"date"`
		Category    string `json:"category"`
		FileBase64  string `json:"fileBase64"`
		ContentType string `json:"contentType"`
	}

	CreateResponse struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}

	UpdateRequest struct {
		Title       *string `json:"title"`
		Issuer      *string `json:"issuer"`
		Date        *string `json:"date"`
		Category    *string `json:"category"`
		FileBase64  *string `json:"fileBase64"`
		ContentType string  `json:"contentType"`
	}

	DeleteRequest struct {
		IDs []string `json:"ids"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

func respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, MessageResponse{Message: message})
}

// criteriaFromQuery maps the list endpoint's query parameters onto gallery
// criteria. The sort defaults to newest, matching the gallery's initial view.
func criteriaFromQuery(r *http.Request) gallery.Criteria {
	q := r.URL.Query()
	return gallery.Criteria{
		TitleQuery: q.Get("title"),
		Category:   q.Get("category"),
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		Sort:       gallery.ParseSortMode(q.Get("sort")),
	}
}

// HandleList returns the certificates matching the request's filter and
// sort parameters. The filter is passed to the store as an optimization,
// but the gallery pipeline is applied on top either way, so the response is
// correct even for a store that ignores the filter entirely.
func HandleList(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria := criteriaFromQuery(r)

		certs, err := store.List(r.Context(), criteria.Filter())
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list certificates")
			respondMessage(w, r, http.StatusInternalServerError, "Failed to fetch certificates")
			return
		}

		displayed := gallery.Apply(certs, criteria)
		for i := range displayed {
			displayed[i].Content = "" // keep list responses light
		}
		render.JSON(w, r, displayed)
	}
}

// HandleGet returns a single certificate, content included.
func HandleGet(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		cert, err := store.FindID(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":          err,
				"certificate_id": id,
			}).Warn("Failed to get certificate")
			respondMessage(w, r, http.StatusNotFound, "Certificate not found")
			return
		}

		render.JSON(w, r, cert)
	}
}

// HandleCreate validates and stores an uploaded certificate. Whether the
// payload is a document is derived here, once, from the upload's media
// type; for PDFs the page count is extracted as rendering metadata.
func HandleCreate(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			respondMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		cert := core.Certificate{
			Title:    req.Title,
			Issuer:   req.Issuer,
			Date:     req.Date,
			Category: req.Category,
			Content:  req.FileBase64,
		}
		if err := cert.Validate(); err != nil {
			respondMessage(w, r, http.StatusBadRequest, "Missing required fields")
			return
		}

		data, err := base64.StdEncoding.DecodeString(req.FileBase64)
		if err != nil {
			respondMessage(w, r, http.StatusBadRequest, "Invalid fileBase64 payload")
			return
		}

		cert.IsDocument = isPDF(req.ContentType, data)
		if cert.IsDocument {
			if count, err := pdfPageCount(data); err != nil {
				logrus.WithField("error", err).Warn("Failed to extract pdf page count")
			} else {
				cert.PageCount = count
			}
		}

		id, err := store.Create(r.Context(), &cert)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to create certificate")
			respondMessage(w, r, http.StatusInternalServerError, "Failed to add certificate")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{Message: "Certificate added", ID: id})
	}
}

// HandleUpdate applies a partial update. Replacing the content re-derives
// the document flag and page count alongside it.
func HandleUpdate(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			respondMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		patch := core.Update{
			Title:    req.Title,
			Issuer:   req.Issuer,
			Date:     req.Date,
			Category: req.Category,
		}
		if req.FileBase64 != nil {
			data, err := base64.StdEncoding.DecodeString(*req.FileBase64)
			if err != nil {
				respondMessage(w, r, http.StatusBadRequest, "Invalid fileBase64 payload")
				return
			}
			isDoc := isPDF(req.ContentType, data)
			pageCount := 0
			if isDoc {
				if count, err := pdfPageCount(data); err != nil {
					logrus.WithField("error", err).Warn("Failed to extract pdf page count")
				} else {
					pageCount = count
				}
			}
			patch.Content = req.FileBase64
			patch.IsDocument = &isDoc
			patch.PageCount = &pageCount
		}

		if err := store.Update(r.Context(), id, patch); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				respondMessage(w, r, http.StatusNotFound, "Certificate not found")
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":          err,
				"certificate_id": id,
			}).Error("Failed to update certificate")
			respondMessage(w, r, http.StatusInternalServerError, "Failed to update certificate")
			return
		}

		respondMessage(w, r, http.StatusOK, "Certificate updated")
	}
}

// HandleDeleteMany removes a batch of certificates. An empty id set is a
// request error, not a silent success, and a failed batch reports one
// message covering the whole operation.
func HandleDeleteMany(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			respondMessage(w, r, http.StatusBadRequest, `Invalid or missing "ids" in request body`)
			return
		}
		if len(req.IDs) == 0 {
			respondMessage(w, r, http.StatusBadRequest, `Invalid or missing "ids" in request body`)
			return
		}

		if _, err := store.Delete(r.Context(), req.IDs); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				respondMessage(w, r, http.StatusNotFound, "No matching certificates")
				return
			}
			logrus.WithFields(logrus.Fields{
				"error": err,
				"count": len(req.IDs),
			}).Error("Failed to delete certificates")
			respondMessage(w, r, http.StatusInternalServerError, "Failed to delete certificates")
			return
		}

		respondMessage(w, r, http.StatusOK, "Certificates deleted successfully")
	}
}

// HandleExport streams a zip bundle of the requested certificates. Ids that
// no longer resolve are skipped, so an export that raced a delete returns
// whatever remains rather than failing.
func HandleExport(store core.CertificateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.Split(r.URL.Query().Get("ids"), ",")
		ids := make([]string, 0, len(raw))
		for _, id := range raw {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			respondMessage(w, r, http.StatusBadRequest, `Invalid or missing "ids" query parameter`)
			return
		}

		certs, err := store.List(r.Context(), core.Filter{})
		if err != nil {
			logrus.WithField("error", err).Error("Failed to load certificates for export")
			respondMessage(w, r, http.StatusInternalServerError, "Failed to export certificates")
			return
		}

		archive, err := gallery.BuildArchive(certs, ids)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to build export archive")
			respondMessage(w, r, http.StatusInternalServerError, "Failed to generate zip file for download")
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="certificates.zip"`)
		w.Write(archive)
	}
}

// isPDF derives the document flag from the declared media type, falling
// back to content sniffing when the client did not state one.
func isPDF(declared string, data []byte) bool {
	mediaType := declared
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	return mediaType == "application/pdf"
}

func pdfPageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}
