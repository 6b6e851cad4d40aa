package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"
	"vendtrack/db"
	"vendtrack/metrics"
	"vendtrack/models"

	"github.com/hashicorp/go-multierror"
)

// CreateReportInput is the data a submitter provides for a new report.
type CreateReportInput struct {
	UserID    string                 `json:"userId" validate:"required"`
	Type      models.ReportType      `json:"type" validate:"required,oneof=iceCream fridge"`
	Status    string                 `json:"status"`
	MachineID string                 `json:"machineId"`
	Location  string                 `json:"location"`
	Notes     string                 `json:"notes"`
	Photos    map[string][]string    `json:"photos"`
	Details   map[string]interface{} `json:"details"`
}

// ReportService manages inspection reports.
type ReportService struct {
	store    db.Store
	now      func() time.Time
	randIntn func(n int) int
}

func NewReportService(store db.Store) *ReportService {
	return &ReportService{
		store:    store,
		now:      time.Now,
		randIntn: rand.Intn,
	}
}

func sortNewestFirst(reports []models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}

// GetAllReports returns every report, newest first.
func (s *ReportService) GetAllReports(ctx context.Context) ([]models.Report, error) {
	snaps, err := s.store.All(ctx, db.CollectionReports)
	if err != nil {
		return nil, newError(KindInternal, "Failed to retrieve reports", err)
	}

	reports := decodeAll[models.Report](db.CollectionReports, snaps)
	sortNewestFirst(reports)
	return reports, nil
}

// GetUserReports returns the reports submitted by one user.
func (s *ReportService) GetUserReports(ctx context.Context, userID string) ([]models.Report, error) {
	if userID == "" {
		return nil, newError(KindValidation, "User id is required", nil)
	}

	snaps, err := s.store.WhereEqual(ctx, db.CollectionReports, "userId", userID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to retrieve user reports", err)
	}

	reports := decodeAll[models.Report](db.CollectionReports, snaps)
	sortNewestFirst(reports)
	return reports, nil
}

func (s *ReportService) GetReportByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := load(ctx, s.store, db.CollectionReports, id, &report, "Report not found"); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateReport assigns a report id and writes the full record.
func (s *ReportService) CreateReport(ctx context.Context, input CreateReportInput) (*models.Report, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	id := s.GenerateReportID(ctx)
	now := s.now().UTC()
	report := models.Report{
		ID:        id,
		UserID:    input.UserID,
		Type:      input.Type,
		Status:    input.Status,
		MachineID: input.MachineID,
		Location:  input.Location,
		Notes:     input.Notes,
		Photos:    input.Photos,
		Details:   input.Details,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Set(ctx, db.CollectionReports, id, report); err != nil {
		return nil, newError(KindInternal, "Failed to create report", err)
	}

	metrics.ReportsCreated.WithLabelValues(string(report.Type)).Inc()
	log.Printf("✅ Report created: %s (type: %s, user: %s)", id, report.Type, report.UserID)
	return &report, nil
}

// UpdateReport merges the patch into an existing report. The patch is
// checked against the report fields before it is written.
func (s *ReportService) UpdateReport(ctx context.Context, id string, patch map[string]interface{}) (*models.Report, error) {
	current, err := s.GetReportByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := preparePatch(patch, s.now().UTC())
	merged, err := mergePatch(*current, fields)
	if err != nil {
		return nil, err
	}
	if _, ok := fields["type"]; ok && !merged.Type.Valid() {
		return nil, newError(KindValidation, "type must be one of: iceCream fridge", nil)
	}

	if err := s.store.Update(ctx, db.CollectionReports, id, fields); err != nil {
		return nil, newError(KindInternal, "Failed to update report", err)
	}
	return s.GetReportByID(ctx, id)
}

// DeleteReport removes a report. Photos are inline and go with it.
func (s *ReportService) DeleteReport(ctx context.Context, id string) error {
	if _, err := s.GetReportByID(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, db.CollectionReports, id); err != nil {
		return newError(KindInternal, "Failed to delete report", err)
	}
	log.Printf("🗑️  Report deleted: %s", id)
	return nil
}

// GetDealerReports gathers the reports of every operator assigned to the
// dealer. Operators whose reports cannot be read are skipped.
func (s *ReportService) GetDealerReports(ctx context.Context, dealerID string) ([]models.Report, error) {
	var dealer models.User
	if err := load(ctx, s.store, db.CollectionUsers, dealerID, &dealer, "Dealer not found"); err != nil {
		return nil, err
	}

	reports := []models.Report{}
	if len(dealer.AssignedOperators) == 0 {
		return reports, nil
	}

	var errs error
	for _, operatorID := range dealer.AssignedOperators {
		operatorReports, err := s.GetUserReports(ctx, operatorID)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("operator %q: %w", operatorID, err))
			continue
		}
		reports = append(reports, operatorReports...)
	}
	if errs != nil {
		log.Printf("⚠️  Dealer %s: some operator reports were skipped: %v", dealerID, errs)
	}

	sortNewestFirst(reports)
	return reports, nil
}

// ReportsVisibleTo returns the reports a user may list.
func (s *ReportService) ReportsVisibleTo(ctx context.Context, user *models.User) ([]models.Report, error) {
	switch user.Role {
	case models.RoleAdmin, models.RoleViewer:
		return s.GetAllReports(ctx)
	case models.RoleDealer:
		return s.GetDealerReports(ctx, user.ID)
	default:
		return s.GetUserReports(ctx, user.ID)
	}
}

// CanViewReport reports whether user may read the report.
func CanViewReport(user *models.User, report *models.Report) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleViewer:
		return true
	case models.RoleDealer:
		for _, operatorID := range user.AssignedOperators {
			if operatorID == report.UserID {
				return true
			}
		}
	}
	return report.UserID == user.ID
}

// CanEditReport reports whether user may change the report.
func CanEditReport(user *models.User, report *models.Report) bool {
	return user.Role == models.RoleAdmin || report.UserID == user.ID
}
