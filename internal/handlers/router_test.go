package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, sm *stubServiceManager) *gin.Engine {
	t.Helper()
	router := gin.New()
	SetupMiddleware(router, testLogger(), nil)
	issuer := NewJWTAuthenticator(strings.Repeat("k", 32), time.Hour)
	NewHandlerManager(sm, testTokens, issuer, validator.New(), testLogger()).SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Authentication(t *testing.T) {
	router := newTestRouter(t, newStubServiceManager())

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"no token", http.MethodGet, "/api/v1/grades", "", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/api/v1/grades", "forged", http.StatusUnauthorized},
		{"teacher lists grades", http.MethodGet, "/api/v1/grades", "teacher-token", http.StatusOK},
		{"student cannot list grades", http.MethodGet, "/api/v1/grades", "student-token", http.StatusForbidden},
		{"student reads one grade", http.MethodGet, "/api/v1/grades/1001", "student-token", http.StatusOK},
		{"student cannot add grades", http.MethodPost, "/api/v1/grades", "student-token", http.StatusForbidden},
		{"student cannot mark attendance", http.MethodPost, "/api/v1/attendance", "student-token", http.StatusForbidden},
		{"teacher cannot see overview", http.MethodGet, "/api/v1/analytics/overview", "teacher-token", http.StatusForbidden},
		{"admin sees overview", http.MethodGet, "/api/v1/analytics/overview", "admin-token", http.StatusOK},
		{"student gpa", http.MethodGet, "/api/v1/analytics/students/1/gpa", "student-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, tt.method, tt.path, tt.token, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRoutes_LoginThenCallWithToken(t *testing.T) {
	sm := newStubServiceManager()
	sm.auth.users = map[string]string{"t.okafor": "correct horse"}
	router := newTestRouter(t, sm)

	rec := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"t.okafor","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}

	rec = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"t.okafor"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password status = %d", rec.Code)
	}

	rec = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"t.okafor","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.Session == nil || resp.Session.Role != teacherSession.Role {
		t.Fatalf("unexpected login response %+v", resp)
	}
}

func TestRoutes_LoginDisabledWithoutIssuer(t *testing.T) {
	router := gin.New()
	NewHandlerManager(newStubServiceManager(), testTokens, nil, validator.New(), testLogger()).SetupRoutes(router)

	rec := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", `{"username":"a","password":"b"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoutes_Grades(t *testing.T) {
	sm := newStubServiceManager()
	router := newTestRouter(t, sm)

	t.Run("add grade returns 201", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/api/v1/grades", "teacher-token",
			`{"student_id":1,"subject_id":10,"class_id":1,"term":"Term 1","score":92.5}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"grade_letter":"A"`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("list forwards filters", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/grades?class_id=1&subject_id=10&term=Term%201", "teacher-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		f := sm.grade.lastFilters
		if f.ClassID == nil || *f.ClassID != 1 || f.SubjectID == nil || *f.SubjectID != 10 || f.Term == nil {
			t.Errorf("filters = %+v", f)
		}
	})

	t.Run("invalid term rejected", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/grades?term=Term%209", "teacher-token", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/grades/abc", "teacher-token", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := doRequest(router, http.MethodDelete, "/api/v1/grades/1001", "teacher-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if len(sm.grade.deleted) != 1 || sm.grade.deleted[0] != 1001 {
			t.Errorf("deleted = %v", sm.grade.deleted)
		}
	})

	t.Run("classify", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/grades/classify?score=64.99", "student-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp ClassifyResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Grade != "D" {
			t.Errorf("grade = %s, want D", resp.Grade)
		}
	})

	t.Run("classify out of range", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/grades/classify?score=101", "student-token", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRoutes_AttendanceFilters(t *testing.T) {
	sm := newStubServiceManager()
	router := newTestRouter(t, sm)

	rec := doRequest(router, http.MethodGet, "/api/v1/attendance?student_id=2&date_from=2025-03-01&date_to=2025-03-31", "teacher-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	f := sm.attendance.lastFilters
	if f.StudentID == nil || *f.StudentID != 2 || f.DateFrom == nil || f.DateTo == nil || f.DateTo.Day() != 31 {
		t.Errorf("filters = %+v", f)
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/attendance?date_from=03/01/2025", "teacher-token", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}

	rec = doRequest(router, http.MethodPost, "/api/v1/attendance/batch", "teacher-token",
		`{"class_id":1,"date":"2025-03-10","entries":[{"student_id":1,"status":"present"},{"student_id":2,"status":"late"}]}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"succeeded":[1,2]`) {
		t.Errorf("batch status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestRoutes_DistributionScope(t *testing.T) {
	sm := newStubServiceManager()
	router := newTestRouter(t, sm)

	rec := doRequest(router, http.MethodGet, "/api/v1/analytics/distribution?subject_id=10", "teacher-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sm.analytics.lastScope.SubjectID == nil || sm.analytics.lastScope.ClassID != nil {
		t.Errorf("scope = %+v", sm.analytics.lastScope)
	}
	if !strings.Contains(rec.Body.String(), `"scope":"subject:10"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRoutes_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", services.NewValidationError("score", "must be between 0 and 100", 120), http.StatusBadRequest},
		{"not found", services.NewNotFoundError("class", 99), http.StatusNotFound},
		{"denied", services.NewPermissionError(teacherSession, "class", 2, "view", "not the class teacher"), http.StatusForbidden},
		{"invalid session", services.ErrInvalidSession, http.StatusUnauthorized},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newStubServiceManager()
			sm.analytics.err = tt.err
			router := newTestRouter(t, sm)

			rec := doRequest(router, http.MethodGet, "/api/v1/analytics/classes/2/average", "teacher-token", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Message == "" {
				t.Errorf("error body = %s", rec.Body.String())
			}
		})
	}
}

func TestRoutes_Reports(t *testing.T) {
	router := newTestRouter(t, newStubServiceManager())

	rec := doRequest(router, http.MethodGet, "/api/v1/reports/classes/1/attendance.xlsx", "teacher-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "class-1-attendance.xlsx") {
		t.Errorf("content disposition = %q", got)
	}
}

func TestHealth(t *testing.T) {
	sm := newStubServiceManager()
	router := newTestRouter(t, sm)

	if rec := doRequest(router, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	sm.healthErr = errors.New("database unreachable")
	rec := doRequest(router, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}
