package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"vendtrack/middleware"
	"vendtrack/models"
	"vendtrack/photo"
	"vendtrack/service"

	"github.com/go-chi/chi/v5"
)

const (
	maxUploadMemory = 32 << 20
	maxUploadBytes  = 64 << 20
)

type PhotoHandler struct {
	photos  *photo.Service
	reports *service.ReportService
}

func NewPhotoHandler(photos *photo.Service, reports *service.ReportService) *PhotoHandler {
	return &PhotoHandler{photos: photos, reports: reports}
}

func writePhotoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, photo.ErrPhotoNotFound):
		writeError(w, "Photo not found", service.KindNotFound)
	case errors.Is(err, photo.ErrRead), errors.Is(err, photo.ErrDecode),
		errors.Is(err, photo.ErrInvalidKey), errors.Is(err, photo.ErrTooLarge):
		writeError(w, err.Error(), service.KindValidation)
	default:
		log.Printf("❌ Photo operation failed: %v", err)
		writeError(w, "Photo operation failed", service.KindInternal)
	}
}

// parseUpload caps the request body and parses the multipart form.
func parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "Upload is too large", service.KindValidation)
			return false
		}
		writeError(w, "Invalid multipart form", service.KindValidation)
		return false
	}
	return true
}

// authorizeReport loads the report and checks the caller against allowed.
// It writes the error response and returns false when access is refused.
func (h *PhotoHandler) authorizeReport(w http.ResponseWriter, r *http.Request, reportID string, allowed func(*models.User, *models.Report) bool) bool {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return false
	}

	report, err := h.reports.GetReportByID(r.Context(), reportID)
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if !allowed(user, report) {
		writeError(w, "You cannot access photos of this report", service.KindForbidden)
		return false
	}
	return true
}

// authorizeKey resolves the report behind a storage key. Admins may reach
// any key, including photos whose report is gone.
func (h *PhotoHandler) authorizeKey(w http.ResponseWriter, r *http.Request, key string, allowed func(*models.User, *models.Report) bool) bool {
	if user, ok := middleware.GetUserFromContext(r.Context()); ok && user.Role == models.RoleAdmin {
		return true
	}

	reportID, _, err := photo.ParseStorageKey(key)
	if err != nil {
		writePhotoError(w, err)
		return false
	}
	return h.authorizeReport(w, r, reportID, allowed)
}

// UploadPhotos compresses every file in the "photos" field into data URLs,
// in upload order
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	if !parseUpload(w, r) {
		return
	}

	headers := r.MultipartForm.File["photos"]
	if len(headers) == 0 {
		writeError(w, "No photos uploaded", service.KindValidation)
		return
	}

	files := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, "Uploaded file could not be read", service.KindValidation)
			return
		}
		defer f.Close()
		files = append(files, f)
	}

	urls, err := h.photos.SaveMultiplePhotoURLs(files)
	if err != nil {
		writePhotoError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"urls": urls})
}

// UploadReportPhoto stores one photo for a report the caller may edit
func (h *PhotoHandler) UploadReportPhoto(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")
	if !h.authorizeReport(w, r, reportID, service.CanEditReport) {
		return
	}
	if !parseUpload(w, r) {
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeError(w, "No photo uploaded", service.KindValidation)
		return
	}
	defer file.Close()

	stored, err := h.photos.SaveToStorage(r.Context(), file, reportID, chi.URLParam(r, "type"))
	if err != nil {
		writePhotoError(w, err)
		return
	}

	log.Printf("📷 Photo stored: %s", stored.StorageKey)
	writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"url":        stored.URL,
		"storageKey": stored.StorageKey,
	})
}

func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !h.authorizeKey(w, r, key, service.CanViewReport) {
		return
	}

	url, err := h.photos.Get(r.Context(), key)
	if err != nil {
		writePhotoError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"url": url})
}

func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !h.authorizeKey(w, r, key, service.CanEditReport) {
		return
	}

	if err := h.photos.Delete(r.Context(), key); err != nil {
		writePhotoError(w, err)
		return
	}

	log.Printf("🗑️  Photo deleted: %s", key)
	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "Photo deleted"})
}
