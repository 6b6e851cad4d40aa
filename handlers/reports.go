package handlers

import (
	"log"
	"net/http"
	"vendtrack/middleware"
	"vendtrack/models"
	"vendtrack/navigation"
	"vendtrack/service"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func writeReports(w http.ResponseWriter, reports []models.Report) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReports returns every report
func (h *ReportHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.GetAllReports(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeReports(w, reports)
}

// GetMyReports returns the caller's own reports
func (h *ReportHandler) GetMyReports(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	reports, err := h.reports.GetUserReports(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeReports(w, reports)
}

// GetUserReports returns the reports of the user in the path
func (h *ReportHandler) GetUserReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.GetUserReports(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeReports(w, reports)
}

// GetDealerReports returns the reports of a dealer's operators. Dealers see
// their own; admins pass ?dealerId=.
func (h *ReportHandler) GetDealerReports(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	dealerID := user.ID
	if user.Role == models.RoleAdmin {
		dealerID = r.URL.Query().Get("dealerId")
		if dealerID == "" {
			writeError(w, "dealerId is required", service.KindValidation)
			return
		}
	}

	reports, err := h.reports.GetDealerReports(r.Context(), dealerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeReports(w, reports)
}

// GetDailyCount returns how many reports were created today
func (h *ReportHandler) GetDailyCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.reports.GetDailyReportCount(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"count": count})
}

// GetNextID reserves and returns the next report id
func (h *ReportHandler) GetNextID(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{"id": h.reports.GenerateReportID(r.Context())})
}

// GetReport returns one report if the caller may see it
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	report, err := h.reports.GetReportByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !service.CanViewReport(user, report) {
		writeError(w, "You cannot view this report", service.KindForbidden)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{"report": report})
}

// CreateReport submits a report as the caller
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	var input service.CreateReportInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.UserID = user.ID

	if input.Type.Valid() && !navigation.CanSubmit(user.Role, user.Permissions, input.Type) {
		log.Printf("⚠️  %s (%s) tried to submit a %s report", user.Email, user.Role, input.Type)
		writeError(w, "You are not allowed to submit this report type", service.KindForbidden)
		return
	}

	report, err := h.reports.CreateReport(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]interface{}{"report": report})
}

// UpdateReport merges changes into a report owned by the caller
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	existing, err := h.reports.GetReportByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !service.CanEditReport(user, existing) {
		writeError(w, "You cannot edit this report", service.KindForbidden)
		return
	}

	var patch map[string]interface{}
	if !decodeJSON(w, r, &patch) {
		return
	}
	if user.Role != models.RoleAdmin {
		delete(patch, "userId")

		// changing the form is gated the same way as submitting it
		if t, ok := patch["type"].(string); ok {
			newType := models.ReportType(t)
			if newType != existing.Type && newType.Valid() && !navigation.CanSubmit(user.Role, user.Permissions, newType) {
				log.Printf("⚠️  %s (%s) tried to change report %s to %s", user.Email, user.Role, id, newType)
				writeError(w, "You are not allowed to submit this report type", service.KindForbidden)
				return
			}
		}
	}

	report, err := h.reports.UpdateReport(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{"report": report})
}

// DeleteReport removes a report
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.DeleteReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "Report deleted"})
}
