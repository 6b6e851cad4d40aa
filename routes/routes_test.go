package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
	"vendtrack/auth"
	"vendtrack/db"
	"vendtrack/middleware"
	"vendtrack/models"
	"vendtrack/photo"
	"vendtrack/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	auth    *service.AuthService
	users   map[models.UserRole]*models.User
}

func newTestAPI(t *testing.T, limiter *middleware.RateLimiter) *testAPI {
	t.Helper()

	store := db.NewMemoryStore()
	identity := auth.NewLocalIdentity(store)
	sessions := auth.NewSessionManager(time.Hour)
	audit := service.NewAuditLogger(store)
	authService := service.NewAuthService(store, identity, sessions, audit)

	api := &testAPI{
		t:    t,
		auth: authService,
		handler: New(Deps{
			JWT:            auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour),
			Auth:           authService,
			Users:          service.NewUserService(store, identity, audit),
			Reports:        service.NewReportService(store),
			Commodities:    service.NewCommodityService(store, audit),
			Audit:          audit,
			Photos:         photo.NewService(photo.NewMemoryStore()),
			RateLimiter:    limiter,
			AllowedOrigins: []string{"http://localhost:3000"},
		}),
		users: map[models.UserRole]*models.User{},
	}

	ctx := context.Background()
	create := func(input service.CreateUserInput) *models.User {
		input.Password = testPassword
		user, err := authService.CreateUser(ctx, input)
		require.NoError(t, err)
		return user
	}

	api.users[models.RoleAdmin] = create(service.CreateUserInput{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin})
	api.users[models.RoleOperator] = create(service.CreateUserInput{
		Email: "operator@example.com", Name: "Operator", Role: models.RoleOperator,
		Permissions: models.Permissions{IceCream: true},
	})
	api.users[models.RoleRouteman] = create(service.CreateUserInput{Email: "route@example.com", Name: "Route", Role: models.RoleRouteman})
	api.users[models.RoleViewer] = create(service.CreateUserInput{Email: "viewer@example.com", Name: "Viewer", Role: models.RoleViewer})
	api.users[models.RoleDealer] = create(service.CreateUserInput{
		Email: "dealer@example.com", Name: "Dealer", Role: models.RoleDealer,
		AssignedOperators: []string{api.users[models.RoleOperator].ID},
	})
	return api
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a *testAPI) serve(req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (a *testAPI) login(role models.UserRole) (string, string) {
	a.t.Helper()
	rec, body := a.do(http.MethodPost, "/api/login", "", map[string]string{
		"email":    a.users[role].Email,
		"password": testPassword,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return body["token"].(string), body["refreshToken"].(string)
}

func (a *testAPI) createReport(token string, reportType models.ReportType) (int, map[string]interface{}) {
	a.t.Helper()
	rec, body := a.do(http.MethodPost, "/api/reports", token, map[string]interface{}{
		"type":      reportType,
		"machineId": "M-7",
		"location":  "Kadıköy",
		"photos":    map[string][]string{"before": {"data:image/jpeg;base64,AAAA"}},
	})
	return rec.Code, body
}

func pngUpload(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "healthy", body["status"])
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, body := api.do(http.MethodPost, "/api/login", "", map[string]string{
		"email": "operator@example.com", "password": "wrong-password1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "unauthorized", body["code"])

	rec, body = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["code"])

	token, _ := api.login(models.RoleOperator)
	rec, body = api.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "operator@example.com", user["email"])
	assert.NotEmpty(t, user["lastLogin"])
}

func TestRefreshAndLogout(t *testing.T) {
	api := newTestAPI(t, nil)
	token, refresh := api.login(models.RoleViewer)

	rec, _ := api.do(http.MethodPost, "/api/refresh", "", map[string]string{"refreshToken": token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "access tokens cannot refresh")

	rec, body := api.do(http.MethodPost, "/api/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	newToken := body["token"].(string)

	rec, _ = api.do(http.MethodPost, "/api/logout", newToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = api.do(http.MethodPost, "/api/refresh", "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletedProfileEndsSession(t *testing.T) {
	api := newTestAPI(t, nil)
	adminToken, _ := api.login(models.RoleAdmin)
	viewerToken, _ := api.login(models.RoleViewer)

	rec, _ := api.do(http.MethodDelete, "/api/admin/users/"+api.users[models.RoleViewer].ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := api.do(http.MethodGet, "/api/me", viewerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User profile not found", body["error"])
}

func TestNavigation(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.login(models.RoleOperator)

	rec, body := api.do(http.MethodGet, "/api/navigation", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nav := body["navigation"].(map[string]interface{})
	assert.Equal(t, []interface{}{"dashboard", "iceCreamReport", "logout"}, nav["actions"])
}

func TestReportLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	operatorToken, _ := api.login(models.RoleOperator)
	routemanToken, _ := api.login(models.RoleRouteman)
	adminToken, _ := api.login(models.RoleAdmin)
	viewerToken, _ := api.login(models.RoleViewer)
	dealerToken, _ := api.login(models.RoleDealer)

	code, body := api.createReport(operatorToken, models.ReportTypeIceCream)
	require.Equal(t, http.StatusCreated, code)
	report := body["report"].(map[string]interface{})
	id := report["id"].(string)
	assert.True(t, strings.HasPrefix(id, "DGS-001"), id)
	assert.Equal(t, api.users[models.RoleOperator].ID, report["userId"])

	code, body = api.createReport(operatorToken, models.ReportTypeFridge)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body["code"])

	code, _ = api.createReport(adminToken, models.ReportTypeIceCream)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.createReport(routemanToken, models.ReportType("other"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.createReport(routemanToken, models.ReportTypeFridge)
	require.Equal(t, http.StatusCreated, code)
	routemanReportID := body["report"].(map[string]interface{})["id"].(string)
	assert.True(t, strings.HasPrefix(routemanReportID, "DGS-002"), routemanReportID)

	// Listing
	rec, body := api.do(http.MethodGet, "/api/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, _ = api.do(http.MethodGet, "/api/reports", operatorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = api.do(http.MethodGet, "/api/reports/mine", operatorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = api.do(http.MethodGet, "/api/dealer/reports", dealerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, _ = api.do(http.MethodGet, "/api/dealer/reports", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = api.do(http.MethodGet, "/api/dealer/reports?dealerId="+api.users[models.RoleDealer].ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = api.do(http.MethodGet, "/api/users/"+api.users[models.RoleRouteman].ID+"/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = api.do(http.MethodGet, "/api/reports/daily-count", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	// Single report visibility
	for _, token := range []string{operatorToken, adminToken, viewerToken, dealerToken} {
		rec, _ = api.do(http.MethodGet, "/api/reports/"+id, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ = api.do(http.MethodGet, "/api/reports/"+id, routemanToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/reports/DGS-999", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Update
	rec, _ = api.do(http.MethodPut, "/api/reports/"+id, routemanToken, map[string]string{"notes": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = api.do(http.MethodPut, "/api/reports/"+id, operatorToken, map[string]string{
		"notes":  "cleaned",
		"userId": "someone-else",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := body["report"].(map[string]interface{})
	assert.Equal(t, "cleaned", updated["notes"])
	assert.Equal(t, api.users[models.RoleOperator].ID, updated["userId"])

	// Delete
	rec, _ = api.do(http.MethodDelete, "/api/reports/"+id, operatorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = api.do(http.MethodDelete, "/api/reports/"+id, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodDelete, "/api/reports/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReport_TypeChangeFollowsSubmitRights(t *testing.T) {
	api := newTestAPI(t, nil)
	operatorToken, _ := api.login(models.RoleOperator)
	routemanToken, _ := api.login(models.RoleRouteman)

	code, body := api.createReport(operatorToken, models.ReportTypeIceCream)
	require.Equal(t, http.StatusCreated, code)
	operatorReport := body["report"].(map[string]interface{})["id"].(string)

	rec, body := api.do(http.MethodPut, "/api/reports/"+operatorReport, operatorToken, map[string]string{"type": "fridge"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", body["code"])

	rec, body = api.do(http.MethodPut, "/api/reports/"+operatorReport, operatorToken, map[string]string{"type": "iceCream", "notes": "same form"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "same form", body["report"].(map[string]interface{})["notes"])

	code, body = api.createReport(routemanToken, models.ReportTypeFridge)
	require.Equal(t, http.StatusCreated, code)
	routemanReport := body["report"].(map[string]interface{})["id"].(string)

	rec, body = api.do(http.MethodPut, "/api/reports/"+routemanReport, routemanToken, map[string]string{"type": "iceCream"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "iceCream", body["report"].(map[string]interface{})["type"])
}

func TestUpdateReport_IllTypedPatchLeavesReportReadable(t *testing.T) {
	api := newTestAPI(t, nil)
	operatorToken, _ := api.login(models.RoleOperator)
	adminToken, _ := api.login(models.RoleAdmin)

	code, body := api.createReport(operatorToken, models.ReportTypeIceCream)
	require.Equal(t, http.StatusCreated, code)
	id := body["report"].(map[string]interface{})["id"].(string)

	rec, body := api.do(http.MethodPut, "/api/reports/"+id, operatorToken, map[string]interface{}{"photos": "oops"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["code"])

	rec, _ = api.do(http.MethodGet, "/api/reports/"+id, operatorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = api.do(http.MethodGet, "/api/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestExportReports(t *testing.T) {
	api := newTestAPI(t, nil)
	operatorToken, _ := api.login(models.RoleOperator)
	dealerToken, _ := api.login(models.RoleDealer)

	code, _ := api.createReport(operatorToken, models.ReportTypeIceCream)
	require.Equal(t, http.StatusCreated, code)

	rec, _ := api.do(http.MethodGet, "/api/reports/export", dealerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "vendtrack_reports_")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Report ID,Type,Status"))
	assert.Contains(t, lines[1], "iceCream")

	rec, _ = api.do(http.MethodGet, "/api/reports/export", operatorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminUsers(t *testing.T) {
	api := newTestAPI(t, nil)
	adminToken, _ := api.login(models.RoleAdmin)
	viewerToken, _ := api.login(models.RoleViewer)

	rec, _ := api.do(http.MethodGet, "/api/admin/users", viewerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := api.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, body["count"])

	newUser := map[string]interface{}{
		"email": "new@example.com", "password": testPassword, "name": "New", "role": "viewer",
	}
	rec, body = api.do(http.MethodPost, "/api/admin/users", adminToken, newUser)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["user"].(map[string]interface{})["id"].(string)

	rec, body = api.do(http.MethodPost, "/api/admin/users", adminToken, newUser)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", body["code"])

	newUser["email"] = "weak@example.com"
	newUser["password"] = "short"
	rec, _ = api.do(http.MethodPost, "/api/admin/users", adminToken, newUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = api.do(http.MethodPut, "/api/admin/users/"+id, adminToken, map[string]string{"role": "dealer"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dealer", body["user"].(map[string]interface{})["role"])

	rec, _ = api.do(http.MethodPut, "/api/admin/users/"+id, adminToken, map[string]string{"role": "king"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/admin/users/"+id+"/password", adminToken, map[string]string{"newPassword": "another123"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "new@example.com", "password": "another123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodDelete, "/api/admin/users/"+api.users[models.RoleAdmin].ID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodDelete, "/api/admin/users/"+id, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/admin/users/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = api.do(http.MethodGet, "/api/admin/audit-logs?limit=2", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := body["logs"].([]interface{})
	require.Len(t, logs, 2)
	assert.Equal(t, "delete_user", logs[0].(map[string]interface{})["action"])
	assert.Equal(t, api.users[models.RoleAdmin].ID, logs[0].(map[string]interface{})["userId"])
}

func TestCommodities(t *testing.T) {
	api := newTestAPI(t, nil)
	adminToken, _ := api.login(models.RoleAdmin)
	operatorToken, _ := api.login(models.RoleOperator)

	rec, _ := api.do(http.MethodPost, "/api/commodities", operatorToken, map[string]string{"name": "Ayran"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/commodities", adminToken, map[string]string{"code": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := api.do(http.MethodPost, "/api/commodities", adminToken, map[string]string{"name": "Ayran", "unit": "adet"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["commodity"].(map[string]interface{})["id"].(string)

	rec, body = api.do(http.MethodGet, "/api/commodities", operatorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = api.do(http.MethodPut, "/api/commodities/"+id, adminToken, map[string]string{"unit": "koli"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "koli", body["commodity"].(map[string]interface{})["unit"])

	rec, _ = api.do(http.MethodDelete, "/api/commodities/"+id, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/commodities/"+id, operatorToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func (a *testAPI) uploadReportPhoto(token, reportID string) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()
	buf, contentType := pngUpload(a.t, "photo")
	req := httptest.NewRequest(http.MethodPost, "/api/reports/"+reportID+"/photos/before", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return a.serve(req)
}

func TestPhotos(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.login(models.RoleOperator)

	buf, contentType := pngUpload(t, "photos")
	req := httptest.NewRequest(http.MethodPost, "/api/photos", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, body := api.serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	urls := body["urls"].([]interface{})
	require.Len(t, urls, 1)
	assert.True(t, strings.HasPrefix(urls[0].(string), "data:image/jpeg;base64,"))

	code, body := api.createReport(token, models.ReportTypeIceCream)
	require.Equal(t, http.StatusCreated, code)
	reportID := body["report"].(map[string]interface{})["id"].(string)

	rec, body = api.uploadReportPhoto(token, reportID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := body["storageKey"].(string)
	assert.True(t, strings.HasPrefix(key, "photo_"+reportID+"_before_"), key)

	rec, body = api.do(http.MethodGet, "/api/photos/"+key, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(body["url"].(string), "data:image/jpeg;base64,"))

	rec, _ = api.do(http.MethodDelete, "/api/photos/"+key, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = api.do(http.MethodGet, "/api/photos/"+key, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["code"])

	rec, _ = api.do(http.MethodDelete, "/api/photos/"+key, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPhotos_AccessFollowsReport(t *testing.T) {
	api := newTestAPI(t, nil)
	operatorToken, _ := api.login(models.RoleOperator)
	routemanToken, _ := api.login(models.RoleRouteman)
	viewerToken, _ := api.login(models.RoleViewer)
	dealerToken, _ := api.login(models.RoleDealer)
	adminToken, _ := api.login(models.RoleAdmin)

	code, body := api.createReport(operatorToken, models.ReportTypeIceCream)
	require.Equal(t, http.StatusCreated, code)
	reportID := body["report"].(map[string]interface{})["id"].(string)

	rec, body := api.uploadReportPhoto(operatorToken, reportID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := body["storageKey"].(string)

	// uploads need edit rights on an existing report
	rec, body = api.uploadReportPhoto(routemanToken, reportID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", body["code"])
	rec, _ = api.uploadReportPhoto(viewerToken, reportID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = api.uploadReportPhoto(operatorToken, "DGS-99920240501")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// reading follows report visibility
	for _, token := range []string{viewerToken, dealerToken, adminToken} {
		rec, _ = api.do(http.MethodGet, "/api/photos/"+key, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ = api.do(http.MethodGet, "/api/photos/"+key, routemanToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, body = api.do(http.MethodGet, "/api/photos/not-a-report-key", viewerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["code"])

	// deleting follows edit rights
	for _, token := range []string{routemanToken, viewerToken, dealerToken} {
		rec, _ = api.do(http.MethodDelete, "/api/photos/"+key, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
	rec, _ = api.do(http.MethodGet, "/api/photos/"+key, operatorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// admins can clean up photos whose report is gone
	rec, _ = api.do(http.MethodDelete, "/api/reports/"+reportID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/photos/"+key, operatorToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = api.do(http.MethodDelete, "/api/photos/"+key, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPhotos_NotAnImage(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.login(models.RoleOperator)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("photos", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("definitely not an image"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec, body := api.serve(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["code"])
}

func TestRateLimitApplies(t *testing.T) {
	api := newTestAPI(t, middleware.NewRateLimiter(2, time.Hour))

	for i := 0; i < 2; i++ {
		rec, _ := api.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", body["code"])
}
