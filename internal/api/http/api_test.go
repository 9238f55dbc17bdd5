package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	api "github.com/Sardorious/test-me/internal/api/http"
	"github.com/Sardorious/test-me/internal/auth"
	"github.com/Sardorious/test-me/internal/db"
	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/rbac"
	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

type testAPI struct {
	srv    *httptest.Server
	users  *users.SQLStore
	vocab  *vocab.SQLStore
	quiz   quiz.Store
	engine *quiz.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	ust := users.NewSQLStore(dbh, "sqlite")
	vst := vocab.NewSQLStore(dbh, "sqlite")
	qst := quiz.NewSQLStore(dbh, "sqlite")
	engine := quiz.New(qst, vst)
	authSvc := auth.NewAuthService("test-secret")

	adminHash, err := bcrypt.GenerateFromPassword([]byte("bossparol"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/auth/login", auth.LoginHandler(authSvc, ust, "boss", string(adminHash)))
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc), auth.AttachRolesFromDB(ust, false))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions", api.ListSessionsHandler(engine))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", api.SessionSummaryHandler(engine))
		pr.With(rbac.Require("question:override")).
			Post("/questions/{questionID}/correct", api.MarkCorrectHandler(engine))
		pr.With(rbac.Require("word:upload")).
			Post("/wordlists", api.UploadWordListHandler(vst, ust))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(ust))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, users: ust, vocab: vst, quiz: qst, engine: engine}
}

func (ta *testAPI) seedUser(t *testing.T, username, password string, roles ...string) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &users.User{Username: username, FirstName: username, PasswordHash: string(hash), Roles: roles}
	if err := ta.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return u
}

func (ta *testAPI) seedWords(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	unit, err := ta.vocab.CreateUnit(ctx, "A1", "Birinchi dars", 0)
	if err != nil {
		t.Fatalf("create unit: %v", err)
	}
	words := []vocab.Word{
		{Turkish: "merhaba", Uzbek: "salom"},
		{Turkish: "ekmek", Uzbek: "non"},
		{Turkish: "su", Uzbek: "suv"},
	}
	if _, err := ta.vocab.CreateWordList(ctx, vocab.WordList{UnitID: unit.ID, Name: "Salomlashish"}, words); err != nil {
		t.Fatalf("create word list: %v", err)
	}
}

func (ta *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(ta.srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("login decode: %v", err)
	}
	return out["access_token"]
}

func (ta *testAPI) do(t *testing.T, method, path, token string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ta.srv.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestLoginAndRoleScoping(t *testing.T) {
	ta := newTestAPI(t)
	ta.seedWords(t)
	ctx := context.Background()

	student := ta.seedUser(t, "ali", "parol1", users.RoleStudent)
	other := ta.seedUser(t, "vali", "parol2", users.RoleStudent)
	ta.seedUser(t, "ustoz", "parol3", users.RoleStudent, users.RoleTeacher)

	s1, err := ta.engine.CreateSession(ctx, student.ID, "A1", quiz.TrToUz, 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := ta.engine.CreateSession(ctx, other.ID, "A1", quiz.TrToUz, 0); err != nil {
		t.Fatalf("create other session: %v", err)
	}

	// Bad credentials are rejected.
	body, _ := json.Marshal(map[string]string{"username": "ali", "password": "wrong"})
	resp, err := http.Post(ta.srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}

	// No token at all.
	if code, _ := ta.do(t, "GET", "/sessions", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: expected 401, got %d", code)
	}

	aliTok := ta.login(t, "ali", "parol1")
	ustozTok := ta.login(t, "ustoz", "parol3")

	// A student sees only their own rows even when filtering for others.
	code, data := ta.do(t, "GET", "/sessions?student_id="+other.ID, aliTok, nil)
	if code != 200 {
		t.Fatalf("list as student: status %d", code)
	}
	var rows []quiz.SessionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].StudentID != student.ID {
		t.Fatalf("student list not forced to own rows: %+v", rows)
	}

	// A teacher sees everyone.
	code, data = ta.do(t, "GET", "/sessions", ustozTok, nil)
	if code != 200 {
		t.Fatalf("list as teacher: status %d", code)
	}
	rows = nil
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("teacher should see 2 sessions, got %d", len(rows))
	}

	// Summaries: own is visible, someone else's is forbidden.
	if code, _ := ta.do(t, "GET", "/sessions/"+s1.ID, aliTok, nil); code != 200 {
		t.Fatalf("own summary: status %d", code)
	}
	otherRows, err := ta.engine.ListSessions(ctx, quiz.ListOpts{StudentID: other.ID})
	if err != nil || len(otherRows) != 1 {
		t.Fatalf("list other sessions: %v (%d rows)", err, len(otherRows))
	}
	if code, _ := ta.do(t, "GET", "/sessions/"+otherRows[0].ID, aliTok, nil); code != http.StatusForbidden {
		t.Fatalf("foreign summary: expected 403, got %d", code)
	}
	if code, _ := ta.do(t, "GET", "/sessions/"+otherRows[0].ID, ustozTok, nil); code != 200 {
		t.Fatalf("teacher reading foreign summary: status %d", code)
	}
	if code, _ := ta.do(t, "GET", "/sessions/missing", ustozTok, nil); code != http.StatusNotFound {
		t.Fatalf("missing summary: expected 404, got %d", code)
	}

	// users:list is teacher-only.
	if code, _ := ta.do(t, "GET", "/users", aliTok, nil); code != http.StatusForbidden {
		t.Fatalf("users list as student: expected 403, got %d", code)
	}
	if code, _ := ta.do(t, "GET", "/users?role=teacher", ustozTok, nil); code != 200 {
		t.Fatalf("users list as teacher: status %d", code)
	}
}

func TestOverrideChangesSummary(t *testing.T) {
	ta := newTestAPI(t)
	ta.seedWords(t)
	ctx := context.Background()

	student := ta.seedUser(t, "ali", "parol1", users.RoleStudent)
	ta.seedUser(t, "ustoz", "parol3", users.RoleStudent, users.RoleTeacher)
	aliTok := ta.login(t, "ali", "parol1")
	ustozTok := ta.login(t, "ustoz", "parol3")

	s, err := ta.engine.CreateSession(ctx, student.ID, "A1", quiz.TrToUz, 2)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	// Answer both wrong, so percent starts at zero.
	for pos := 1; pos <= 2; pos++ {
		if _, err := ta.engine.Submit(ctx, s.ID, pos, "yanlis javob"); err != nil {
			t.Fatalf("submit %d: %v", pos, err)
		}
	}

	var sum quiz.Summary
	code, data := ta.do(t, "GET", "/sessions/"+s.ID, aliTok, nil)
	if code != 200 {
		t.Fatalf("summary: status %d", code)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Percent != 0 || len(sum.Mistakes) != 2 {
		t.Fatalf("expected 0%% with 2 mistakes, got %d%% with %d", sum.Percent, len(sum.Mistakes))
	}
	qID := findQuestionID(t, ta, s.ID, sum.Mistakes[0].Position)

	// Students may not override.
	if code, _ := ta.do(t, "POST", "/questions/"+qID+"/correct", aliTok, nil); code != http.StatusForbidden {
		t.Fatalf("override as student: expected 403, got %d", code)
	}
	if code, _ := ta.do(t, "POST", "/questions/"+qID+"/correct", ustozTok, nil); code != http.StatusNoContent {
		t.Fatalf("override as teacher: expected 204, got %d", code)
	}
	// Overriding the same question again conflicts.
	if code, _ := ta.do(t, "POST", "/questions/"+qID+"/correct", ustozTok, nil); code != http.StatusConflict {
		t.Fatalf("second override: expected 409, got %d", code)
	}

	code, data = ta.do(t, "GET", "/sessions/"+s.ID, aliTok, nil)
	if code != 200 {
		t.Fatalf("summary after override: status %d", code)
	}
	sum = quiz.Summary{}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Percent != 50 || len(sum.Mistakes) != 1 {
		t.Fatalf("expected 50%% with 1 mistake, got %d%% with %d", sum.Percent, len(sum.Mistakes))
	}
}

func TestUploadWordList(t *testing.T) {
	ta := newTestAPI(t)
	ctx := context.Background()

	ta.seedUser(t, "ali", "parol1", users.RoleStudent)
	teacher := ta.seedUser(t, "ustoz", "parol3", users.RoleStudent, users.RoleTeacher)
	aliTok := ta.login(t, "ali", "parol1")
	ustozTok := ta.login(t, "ustoz", "parol3")

	payload := []byte(`{
		"level": "B1",
		"unit_name": "Oziq-ovqat",
		"name": "Taomlar",
		"words": [
			{"turkish": "peynir", "uzbek": "pishloq"},
			{"turkish": "elma", "uzbek": "olma"}
		]
	}`)

	if code, _ := ta.do(t, "POST", "/wordlists", aliTok, payload); code != http.StatusForbidden {
		t.Fatalf("upload as student: expected 403, got %d", code)
	}

	code, data := ta.do(t, "POST", "/wordlists", ustozTok, payload)
	if code != http.StatusCreated {
		t.Fatalf("upload as teacher: expected 201, got %d (%s)", code, data)
	}
	var out struct {
		UnitID     string `json:"unit_id"`
		WordListID string `json:"word_list_id"`
		Words      int    `json:"words"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if out.Words != 2 {
		t.Fatalf("expected 2 words, got %d", out.Words)
	}

	lists, err := ta.vocab.WordLists(ctx, out.UnitID)
	if err != nil || len(lists) != 1 {
		t.Fatalf("word lists: %v (%d)", err, len(lists))
	}
	if lists[0].OwnerID != teacher.ID {
		t.Fatalf("owner not recorded: %+v", lists[0])
	}
	words, err := ta.vocab.WordsForLevel(ctx, "B1")
	if err != nil || len(words) != 2 {
		t.Fatalf("words for level: %v (%d)", err, len(words))
	}

	bad := []byte(`{"level": "B1", "name": "Bosh"}`)
	if code, _ := ta.do(t, "POST", "/wordlists", ustozTok, bad); code != http.StatusBadRequest {
		t.Fatalf("empty upload: expected 400, got %d", code)
	}
}

func findQuestionID(t *testing.T, ta *testAPI, sessionID string, position int) string {
	t.Helper()
	qs, err := ta.quiz.Questions(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	for _, q := range qs {
		if q.Position == position {
			return q.ID
		}
	}
	t.Fatalf("no question at position %d", position)
	return ""
}
