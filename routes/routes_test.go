package routes

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"eldercare-server/config"
	"eldercare-server/database"
	"eldercare-server/services"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	config.Load()

	creds := services.NewCredentialService("test-secret", 30*time.Minute)
	tasks := services.NewTaskService(db, nil)
	deps := Dependencies{
		Users:       services.NewUserService(db, creds),
		Needs:       services.NewNeedService(db, nil),
		Tasks:       tasks,
		Feedback:    services.NewFeedbackService(db, nil),
		CareRecords: services.NewCareRecordService(db),
		Resets:      services.NewPasswordResetService(db, creds, services.LogMailer{}, 5*time.Minute),
		Photos:      services.NewPhotoService(tasks, nil),
	}
	router, err := NewRouter(config.AppConfig, deps)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(name, email, phone, role string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "age": 45, "email": email, "phone": phone, "password": "secret1", "role": role,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %s", name, w.Code, w.Body.String())
	}
	var res struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	decode(s.t, w, &res)
	return res.Token.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ada", "ada@example.org", "5550001", "admin")
	p1 := s.register("Pat", "pat@example.org", "5550002", "")
	p2 := s.register("Sam", "sam@example.org", "5550003", "provider")

	w := s.do(http.MethodPost, "/api/needs", admin, gin.H{
		"title": "clean yard", "description": "rake leaves", "address": "12 Elm St", "time": "2pm-4pm",
	})
	expectStatus(t, w, http.StatusCreated)
	var need struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &need)
	if need.Status != "open" {
		t.Fatalf("expected open need, got %s", need.Status)
	}

	w = s.do(http.MethodGet, "/api/needs", "", nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(http.MethodPost, "/api/tasks", p1, gin.H{"need_id": need.ID})
	expectStatus(t, w, http.StatusCreated)
	var task struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		Need   struct {
			Title string `json:"title"`
		} `json:"need"`
	}
	decode(t, w, &task)
	if task.Status != "ongoing" || task.Need.Title != "clean yard" {
		t.Fatalf("unexpected task %+v", task)
	}

	w = s.do(http.MethodPost, "/api/tasks", p2, gin.H{"need_id": need.ID})
	expectStatus(t, w, http.StatusConflict)

	path := "/api/tasks/complete/" + itoa(task.ID)
	expectStatus(t, s.do(http.MethodPut, path, p2, nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPut, path, p1, nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodPut, path, p1, nil), http.StatusConflict)

	fb := gin.H{"elder_name": "Mrs. Lee", "comment": "lovely", "rating": 5}
	fbPath := "/api/feedback/" + itoa(task.ID)
	expectStatus(t, s.do(http.MethodPost, fbPath, p1, fb), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPost, fbPath, admin, fb), http.StatusCreated)
	w = s.do(http.MethodPost, fbPath, admin, fb)
	expectStatus(t, w, http.StatusConflict)
	var errBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decode(t, w, &errBody)
	if errBody.Message != "feedback already exists for this task" {
		t.Fatalf("unexpected error body %+v", errBody)
	}

	var mine []map[string]interface{}
	w = s.do(http.MethodGet, "/api/feedback/mine", p1, nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &mine)
	if len(mine) != 1 {
		t.Fatalf("expected one feedback, got %d", len(mine))
	}

	expectStatus(t, s.do(http.MethodGet, "/api/tasks/completed", admin, nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/tasks/completed", p1, nil), http.StatusForbidden)

	w = s.do(http.MethodGet, "/api/feedback/export", admin, nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %s", ct)
	}
}

func TestAuthAndValidationErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ada", "ada@example.org", "5550001", "admin")
	provider := s.register("Pat", "pat@example.org", "5550002", "provider")

	need := gin.H{"title": "t", "description": "d", "address": "a", "time": "now"}
	expectStatus(t, s.do(http.MethodPost, "/api/needs", "", need), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/api/needs", "garbage", need), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/api/needs", provider, need), http.StatusForbidden)

	w := s.do(http.MethodPost, "/api/needs", admin, gin.H{"title": "t"})
	expectStatus(t, w, http.StatusBadRequest)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	if body.Fields["description"] != "is required" {
		t.Fatalf("expected per-field messages, got %v", body.Fields)
	}

	expectStatus(t, s.do(http.MethodPost, "/api/feedback/1", admin, gin.H{"elder_name": "E", "comment": "c", "rating": 7}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPut, "/api/tasks/complete/abc", provider, nil), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPut, "/api/tasks/complete/99", provider, nil), http.StatusNotFound)

	expectStatus(t, s.do(http.MethodGet, "/api/users", provider, nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodGet, "/api/users?role=provider", admin, nil), http.StatusOK)

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "X", "age": 30, "email": "x@example.org", "phone": "5559999", "password": "secret1", "role": "root",
	})
	expectStatus(t, w, http.StatusBadRequest)

	expectStatus(t, s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.org", "password": "nope"}), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodGet, "/api/me", admin, nil), http.StatusOK)
}

func TestPhotoUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ada", "ada@example.org", "5550001", "admin")
	provider := s.register("Pat", "pat@example.org", "5550002", "provider")

	w := s.do(http.MethodPost, "/api/needs", admin, gin.H{"title": "t", "description": "d", "address": "a", "time": "now"})
	var need struct{ ID uint }
	decode(t, w, &need)
	w = s.do(http.MethodPost, "/api/tasks", provider, gin.H{"need_id": need.ID})
	var task struct{ ID uint }
	decode(t, w, &task)

	var img bytes.Buffer
	png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, _ := mw.CreateFormFile("photo", "done.png")
	part.Write(img.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/photo/"+itoa(task.ID), &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+provider)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestCareRecordsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	provider := s.register("Pat", "pat@example.org", "5550002", "provider")
	other := s.register("Sam", "sam@example.org", "5550003", "provider")

	w := s.do(http.MethodGet, "/api/profile", provider, nil)
	expectStatus(t, w, http.StatusOK)
	var me struct{ ID uint }
	decode(t, w, &me)

	expectStatus(t, s.do(http.MethodPost, "/api/appointments", provider, gin.H{"user_id": me.ID, "type": "checkup", "details": "annual"}), http.StatusCreated)
	expectStatus(t, s.do(http.MethodGet, "/api/appointments/user/"+itoa(me.ID), other, nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPost, "/api/health-records", provider, gin.H{"user_id": me.ID, "heart_rate": 70}), http.StatusCreated)
	expectStatus(t, s.do(http.MethodGet, "/api/health-records/user/"+itoa(me.ID), provider, nil), http.StatusOK)
	// readings are append-only
	expectStatus(t, s.do(http.MethodDelete, "/api/health-records/1", provider, nil), http.StatusNotFound)

	expectStatus(t, s.do(http.MethodDelete, "/api/users/"+itoa(me.ID), other, nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodDelete, "/api/users/"+itoa(me.ID), provider, nil), http.StatusOK)
	// the token outlives the account but no longer resolves
	expectStatus(t, s.do(http.MethodGet, "/api/me", provider, nil), http.StatusUnauthorized)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestWrongRoleIsForbiddenBeforeValidation(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ada", "ada@example.org", "5550001", "admin")
	provider := s.register("Pat", "pat@example.org", "5550002", "provider")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
	}{
		{"provider creates need with missing fields", http.MethodPost, "/api/needs", provider, gin.H{"title": "t"}},
		{"admin accepts without need id", http.MethodPost, "/api/tasks", admin, gin.H{}},
		{"admin completes with malformed id", http.MethodPut, "/api/tasks/complete/abc", admin, nil},
		{"admin uploads photo with malformed id", http.MethodPost, "/api/tasks/photo/abc", admin, nil},
		{"provider submits out of range rating", http.MethodPost, "/api/feedback/1", provider, gin.H{"rating": 9}},
		{"provider submits on malformed id", http.MethodPost, "/api/feedback/abc", provider, gin.H{}},
		{"admin lists own tasks", http.MethodGet, "/api/tasks/my", admin, nil},
		{"admin lists own feedback", http.MethodGet, "/api/feedback/mine", admin, nil},
		{"provider lists tasks by malformed provider", http.MethodGet, "/api/tasks/by-provider/abc", provider, nil},
		{"provider lists feedback by malformed provider", http.MethodGet, "/api/feedback/by-provider/abc", provider, nil},
		{"provider reads summary", http.MethodGet, "/api/feedback/summary", provider, nil},
		{"provider exports feedback", http.MethodGet, "/api/feedback/export", provider, nil},
		{"provider lists all feedback", http.MethodGet, "/api/feedback/all", provider, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, s.do(tt.method, tt.path, tt.token, tt.body), http.StatusForbidden)
		})
	}
}
