package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/db"
	"github.com/terraincognita07/moodify/internal/inference"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/retry"
	"github.com/terraincognita07/moodify/internal/services"
	"gorm.io/gorm"
)

const (
	testSecretKey = "0123456789abcdef0123456789abcdef"
	testPassword  = "StrongPass1"
)

// fakeAI serves the emotion and chat endpoints. The chat reply depends on
// whether the system prompt asks for tasks.
type fakeAI struct {
	mu            sync.Mutex
	emotionStatus int
	tasksReply    string
	server        *httptest.Server
}

func newFakeAI(t *testing.T) *fakeAI {
	t.Helper()

	ai := &fakeAI{
		tasksReply: "```json\n" + `[
  {"task":"Walk","priority":1,"description":"Ten minutes outside"},
  {"task":"Read","priority":2,"description":"One chapter"},
  {"task":"Stretch","priority":3,"description":"Five minutes"},
  {"task":"Call a friend","priority":4,"description":"Say hi"},
  {"task":"Tidy desk","priority":5,"description":"Clear it"},
  {"task":"Juggle socks","priority":6,"description":"Quirky"}
]` + "\n```",
	}
	ai.server = httptest.NewServer(http.HandlerFunc(ai.serve))
	t.Cleanup(ai.server.Close)
	return ai
}

func (ai *fakeAI) serve(w http.ResponseWriter, r *http.Request) {
	ai.mu.Lock()
	emotionStatus := ai.emotionStatus
	tasksReply := ai.tasksReply
	ai.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/models/"):
		if emotionStatus != 0 {
			w.WriteHeader(emotionStatus)
			return
		}
		_, _ = io.WriteString(w, `[[{"label":"joy","score":0.8},{"label":"neutral","score":0.2}]]`)
	case r.URL.Path == "/chat/completions":
		var request struct {
			Messages []inference.ChatMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&request)
		reply := "That sounds like a full day."
		if len(request.Messages) > 0 && strings.Contains(request.Messages[0].Content, "productivity coach") {
			reply = tasksReply
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	default:
		http.NotFound(w, r)
	}
}

func (ai *fakeAI) failEmotions(status int) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.emotionStatus = status
}

func (ai *fakeAI) replyTasks(raw string) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.tasksReply = raw
}

type testEnv struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
	hub      *realtime.Hub
	ai       *fakeAI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "moodify-api-test.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	ai := newFakeAI(t)
	policy := retry.DefaultPolicy()
	policy.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	emotions := inference.NewEmotionClient(ai.server.URL, "hf", "emotion-model", inference.WithRetryPolicy(policy))
	chat := inference.NewChatClient(ai.server.URL, "key", "chat-model", 0.7, inference.WithRetryPolicy(policy))

	repos := db.NewRepositories(database)
	hub := realtime.NewHub(nil)
	journal := services.NewJournalService(repos.Journal, emotions, chat, hub, nil)

	handler, err := NewHandler(testSecretKey, false, Dependencies{
		Auth:    services.NewAuthService(repos.Users, nil),
		Account: services.NewAccountService(repos.Users),
		Journal: journal,
		Tasks:   services.NewTaskService(chat, repos.DailyTasks, journal, hub, time.Hour, nil),
		Sleep:   services.NewSleepService(repos.SleepSchedules, repos.SleepLogs, hub),
		Hub:     hub,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	return &testEnv{app: app, handler: handler, database: database, hub: hub, ai: ai}
}

type testResponse struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (env *testEnv) do(t *testing.T, method string, path string, payload any, token string) testResponse {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return testResponse{status: response.StatusCode, body: raw, cookies: response.Cookies()}
}

func (response testResponse) decode(t *testing.T, out any) {
	t.Helper()
	if err := json.Unmarshal(response.body, out); err != nil {
		t.Fatalf("decode %q: %v", string(response.body), err)
	}
}

func (response testResponse) expect(t *testing.T, status int) testResponse {
	t.Helper()
	if response.status != status {
		t.Fatalf("expected status %d, got %d: %s", status, response.status, string(response.body))
	}
	return response
}

// registerUser creates an account and returns its bearer token.
func (env *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()

	response := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"display_name":     "Tester",
		"email":            email,
		"password":         testPassword,
		"confirm_password": testPassword,
	}, "").expect(t, http.StatusCreated)

	var payload struct {
		Token string `json:"token"`
	}
	response.decode(t, &payload)
	if payload.Token == "" {
		t.Fatal("expected token in register response")
	}
	return payload.Token
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie != nil && cookie.Name == name {
			return cookie
		}
	}
	return nil
}
