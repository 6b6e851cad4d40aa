package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"vendtrack/middleware"
	"vendtrack/models"
	"vendtrack/service"
)

type ExportHandler struct {
	reports *service.ReportService
	audit   *service.AuditLogger
}

func NewExportHandler(reports *service.ReportService, audit *service.AuditLogger) *ExportHandler {
	return &ExportHandler{
		reports: reports,
		audit:   audit,
	}
}

var exportHeader = []string{
	"Report ID",
	"Type",
	"Status",
	"User ID",
	"Machine ID",
	"Location",
	"Notes",
	"Photo Count",
	"Created At",
	"Updated At",
	"Details",
}

func photoCount(report models.Report) int {
	n := 0
	for _, urls := range report.Photos {
		n += len(urls)
	}
	return n
}

// csvCell keeps spreadsheet apps from reading a cell as a formula.
func csvCell(value string) string {
	if value != "" && strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return "'" + value
	}
	return value
}

func exportRow(report models.Report) []string {
	detailsJSON := ""
	if report.Details != nil {
		if data, err := json.Marshal(report.Details); err == nil {
			detailsJSON = string(data)
		}
	}

	return []string{
		csvCell(report.ID),
		csvCell(string(report.Type)),
		csvCell(report.Status),
		csvCell(report.UserID),
		csvCell(report.MachineID),
		csvCell(report.Location),
		csvCell(report.Notes),
		strconv.Itoa(photoCount(report)),
		report.CreatedAt.Format(time.RFC3339),
		report.UpdatedAt.Format(time.RFC3339),
		detailsJSON,
	}
}

// ExportReports streams the reports visible to the caller as CSV
func (h *ExportHandler) ExportReports(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	reports, err := h.reports.ReportsVisibleTo(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("vendtrack_reports_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		return
	}

	for _, report := range reports {
		if err := writer.Write(exportRow(report)); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			return
		}
	}

	h.audit.Record(r.Context(), "export_reports", fmt.Sprintf("%s exported %d reports", user.Email, len(reports)))
	log.Printf("📊 CSV export by %s: %d reports", user.Email, len(reports))
}
