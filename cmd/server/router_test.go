package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/flux/internal/config"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/handlers"
	"github.com/thereayou/flux/internal/realtime"
	"github.com/thereayou/flux/internal/storage"
	"github.com/thereayou/flux/internal/testutil"
	"github.com/thereayou/flux/pkg/auth"
)

const testDomain = "@correo.unimet.edu.ve"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

// memTokens черный список в памяти
type memTokens struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memTokens) Revoke(_ context.Context, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[token] = true
	return nil
}

func (m *memTokens) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[token], nil
}

type publisherFunc func(ctx context.Context, ev realtime.Event) error

func (f publisherFunc) Publish(ctx context.Context, ev realtime.Event) error { return f(ctx, ev) }

type testAPI struct {
	router *gin.Engine
	db     *database.Database
}

type session struct {
	Token string
	UID   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewDatabase(testutil.NewGormDB(t))
	store, err := storage.NewLocalStore(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		AllowedEmailDom: testDomain,
		CORSOrigins:     []string{"http://localhost:5173"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := wiring{
		cfg:    cfg,
		db:     db,
		store:  store,
		jwt:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		tokens: &memTokens{revoked: map[string]bool{}},
		checks: map[string]handlers.Check{"postgres": db.Ping},
		log:    log,
		// события сразу уходят в локальный hub, минуя Redis
		publisher: func(sink realtime.Sink) realtime.Publisher {
			relay := realtime.NewRelay(nil, sink, log)
			return publisherFunc(func(_ context.Context, ev realtime.Event) error {
				relay.ServeEvent(ev)
				return nil
			})
		},
	}.build()
	go a.hub.Run()
	t.Cleanup(a.hub.Stop)

	return &testAPI{router: newRouter(cfg, log, nil, store, a), db: db}
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func (api *testAPI) upload(t *testing.T, path, token, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func (api *testAPI) register(t *testing.T, first string) session {
	t.Helper()
	login := strings.ToLower(first)
	w := api.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username":         login,
		"email":            login + testDomain,
		"phone":            "04141234567",
		"first_name":       first,
		"last_name":        "Rivas",
		"password":         "Secreto123",
		"confirm_password": "Secreto123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		UID   string `json:"uid"`
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return session{Token: resp.Token, UID: resp.UID}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

type groupJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JoinCode string `json:"join_code"`
	IsPublic bool   `json:"is_public"`
}

func (api *testAPI) createGroup(t *testing.T, s session, name string, public bool) groupJSON {
	t.Helper()
	w := api.do(t, http.MethodPost, "/api/v1/groups", s.Token, gin.H{"name": name, "is_public": public})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var g groupJSON
	decode(t, w, &g)
	return g
}

func (api *testAPI) joinGroup(t *testing.T, s session, code string) {
	t.Helper()
	w := api.do(t, http.MethodPost, "/api/v1/groups/join", s.Token, gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")

	w := api.do(t, http.MethodGet, "/api/v1/me", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	decode(t, w, &me)
	assert.Equal(t, ana.UID, me.ID)
	assert.Equal(t, "ana"+testDomain, me.Email)
	assert.Equal(t, "Ana Rivas", me.DisplayName)

	w = api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ana" + testDomain, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", errorOf(t, w))

	w = api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ANA" + testDomain, "password": "Secreto123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/auth/logout", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/me", ana.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Ana")

	base := func() gin.H {
		return gin.H{
			"username":         "luis",
			"email":            "luis" + testDomain,
			"phone":            "04141234567",
			"first_name":       "Luis",
			"last_name":        "Gómez",
			"password":         "Secreto123",
			"confirm_password": "Secreto123",
		}
	}

	cases := []struct {
		name   string
		change gin.H
		status int
	}{
		{"foreign domain", gin.H{"email": "luis@gmail.com"}, http.StatusBadRequest},
		{"weak password", gin.H{"password": "secreto", "confirm_password": "secreto"}, http.StatusBadRequest},
		{"confirmation mismatch", gin.H{"confirm_password": "Secreto124"}, http.StatusBadRequest},
		{"taken email", gin.H{"email": "ana" + testDomain}, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := base()
			for k, v := range tc.change {
				body[k] = v
			}
			w := api.do(t, http.MethodPost, "/auth/register", "", body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestGroupRoutes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	luis := api.register(t, "Luis")
	g := api.createGroup(t, ana, "Cálculo II", false)
	assert.Len(t, g.JoinCode, 6)

	// аноним видит участников, но не ленту
	w := api.do(t, http.MethodGet, "/api/v1/groups/code/"+g.JoinCode, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview map[string]any
	decode(t, w, &preview)
	assert.Equal(t, false, preview["can_read"])
	assert.NotContains(t, preview, "stream")

	w = api.do(t, http.MethodGet, "/api/v1/groups/"+g.ID+"/stream", luis.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	api.joinGroup(t, luis, strings.ToLower(g.JoinCode))

	w = api.do(t, http.MethodGet, "/api/v1/groups/"+g.ID+"/stream", luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stream struct {
		Stream []struct {
			Kind   string `json:"kind"`
			Author string `json:"author"`
			Text   string `json:"text"`
		} `json:"stream"`
	}
	decode(t, w, &stream)
	require.Len(t, stream.Stream, 2)
	assert.Equal(t, "joined", stream.Stream[1].Kind)
	assert.Equal(t, "Luis Rivas se unió al grupo", stream.Stream[1].Text)

	w = api.do(t, http.MethodPatch, "/api/v1/groups/"+g.ID+"/name", luis.Token, gin.H{"name": "Otro"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPatch, "/api/v1/groups/"+g.ID+"/visibility", ana.Token, gin.H{"is_public": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/groups/"+g.ID+"/stream", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/groups", luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Groups []struct {
			ID          string `json:"id"`
			IsAdmin     bool   `json:"is_admin"`
			MemberCount int64  `json:"member_count"`
		} `json:"groups"`
	}
	decode(t, w, &mine)
	require.Len(t, mine.Groups, 1)
	assert.False(t, mine.Groups[0].IsAdmin)
	assert.EqualValues(t, 2, mine.Groups[0].MemberCount)

	w = api.do(t, http.MethodDelete, "/api/v1/groups/"+g.ID+"/members/not-a-uuid", ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/groups/"+g.ID+"/members/"+luis.UID, ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/groups/"+g.ID+"/leave", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var left struct {
		GroupDeleted bool `json:"group_deleted"`
	}
	decode(t, w, &left)
	assert.True(t, left.GroupDeleted)

	w = api.do(t, http.MethodGet, "/api/v1/groups/code/"+g.JoinCode, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnnouncementAndInvalidCode(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	g := api.createGroup(t, ana, "Física", false)

	w := api.do(t, http.MethodPost, "/api/v1/groups/"+g.ID+"/announcements", ana.Token, gin.H{"text": "<i>Quiz</i> el viernes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}
	decode(t, w, &item)
	assert.Equal(t, "announcement", item.Kind)
	assert.Equal(t, "Quiz el viernes", item.Text)

	w = api.do(t, http.MethodPost, "/api/v1/groups/join", ana.Token, gin.H{"code": "AB-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupFileRoutes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	luis := api.register(t, "Luis")
	g := api.createGroup(t, ana, "Física", false)

	w := api.upload(t, "/api/v1/groups/"+g.ID+"/files", luis.Token, "guia.pdf", pdfBytes)
	assert.Equal(t, http.StatusForbidden, w.Code)

	api.joinGroup(t, luis, g.JoinCode)

	w = api.upload(t, "/api/v1/groups/"+g.ID+"/files", luis.Token, "notas.txt", []byte("solo texto plano"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.upload(t, "/api/v1/groups/"+g.ID+"/files", luis.Token, "guía 1.pdf", pdfBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var uploaded struct {
		Files []struct {
			ID       string `json:"id"`
			Path     string `json:"path"`
			URL      string `json:"url"`
			MimeType string `json:"mime_type"`
		} `json:"files"`
	}
	decode(t, w, &uploaded)
	require.Len(t, uploaded.Files, 1)
	f := uploaded.Files[0]
	assert.True(t, strings.HasPrefix(f.Path, "archivos/"+g.JoinCode+"/"))
	assert.True(t, strings.HasSuffix(f.Path, "-gu_a_1.pdf"))
	assert.Equal(t, "http://files.test/"+f.Path, f.URL)
	assert.Equal(t, "application/pdf", f.MimeType)

	// локальное хранилище раздаётся по /files
	w = api.do(t, http.MethodGet, "/files/"+f.Path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfBytes, w.Body.Bytes())

	w = api.do(t, http.MethodGet, "/api/v1/groups/"+g.ID+"/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/groups/"+g.ID+"/files/"+f.ID, ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/groups/"+g.ID+"/files", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"files":[]}`, w.Body.String())
}

func TestTaskRoutes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	luis := api.register(t, "Luis")
	g := api.createGroup(t, ana, "Química", false)
	api.joinGroup(t, luis, g.JoinCode)

	w := api.do(t, http.MethodPost, "/api/v1/groups/"+g.ID+"/tasks", luis.Token, gin.H{"title": "Resumen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/groups/"+g.ID+"/tasks", ana.Token, gin.H{"title": "Resumen tema 1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task struct {
		ID string `json:"id"`
	}
	decode(t, w, &task)
	api.do(t, http.MethodPost, "/api/v1/groups/"+g.ID+"/tasks", ana.Token, gin.H{"title": "Ejercicios"})

	w = api.do(t, http.MethodPatch, "/api/v1/groups/"+g.ID+"/tasks/"+task.ID, luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/groups/"+g.ID+"/tasks", luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Completed int `json:"completed"`
		Total     int `json:"total"`
		Progress  int `json:"progress"`
	}
	decode(t, w, &board)
	assert.Equal(t, 1, board.Completed)
	assert.Equal(t, 2, board.Total)
	assert.Equal(t, 50, board.Progress)
}

func TestRepositoryRoutes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	luis := api.register(t, "Luis")

	w := api.do(t, http.MethodPost, "/api/v1/repos", ana.Token, gin.H{"title": "Guías de Cálculo", "description": "parciales"})
	require.Equal(t, http.StatusCreated, w.Code)
	var repo struct {
		ID string `json:"id"`
	}
	decode(t, w, &repo)
	base := "/api/v1/repos/" + repo.ID

	w = api.do(t, http.MethodPut, base+"/rating", luis.Token, gin.H{"score": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	api.do(t, http.MethodPut, base+"/rating", luis.Token, gin.H{"score": 4})
	w = api.do(t, http.MethodPut, base+"/rating", ana.Token, gin.H{"score": 5})
	require.Equal(t, http.StatusOK, w.Code)
	var rated struct {
		AverageRating float64 `json:"average_rating"`
		RatingCount   int     `json:"rating_count"`
	}
	decode(t, w, &rated)
	assert.InDelta(t, 4.5, rated.AverageRating, 0.001)
	assert.Equal(t, 2, rated.RatingCount)

	w = api.upload(t, base+"/files", luis.Token, "apuntes.pdf", pdfBytes)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, base+"/collaborators", ana.Token, gin.H{"user_id": luis.UID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.upload(t, base+"/files", luis.Token, "apuntes.pdf", pdfBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/favorite", luis.Token, nil).Code)
	w = api.do(t, http.MethodGet, "/api/v1/me/favorites", luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var favs struct {
		Repositories []struct {
			ID string `json:"id"`
		} `json:"repositories"`
	}
	decode(t, w, &favs)
	require.Len(t, favs.Repositories, 1)
	assert.Equal(t, repo.ID, favs.Repositories[0].ID)

	w = api.do(t, http.MethodGet, base, luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		MyRating      int  `json:"my_rating"`
		IsFavorite    bool `json:"is_favorite"`
		CanWrite      bool `json:"can_write"`
		Collaborators []struct {
			DisplayName string `json:"display_name"`
		} `json:"collaborators"`
	}
	decode(t, w, &detail)
	assert.Equal(t, 4, detail.MyRating)
	assert.True(t, detail.IsFavorite)
	assert.True(t, detail.CanWrite)
	require.Len(t, detail.Collaborators, 1)
	assert.Equal(t, "Luis Rivas", detail.Collaborators[0].DisplayName)

	w = api.do(t, http.MethodGet, base+"/files", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodDelete, base, luis.Token, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, base, ana.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, base, "", nil).Code)
}

func TestSearchRoute(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	api.createGroup(t, ana, "Cálculo Avanzado", true)
	api.createGroup(t, ana, "Cálculo secreto", false)
	api.do(t, http.MethodPost, "/api/v1/repos", ana.Token, gin.H{"title": "Física general"})

	w := api.do(t, http.MethodGet, "/api/v1/search?q=calculo", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Results []struct {
			Kind  string `json:"kind"`
			Title string `json:"title"`
		} `json:"results"`
		Count int `json:"count"`
	}
	decode(t, w, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "group", resp.Results[0].Kind)
	assert.Equal(t, "Cálculo Avanzado", resp.Results[0].Title)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/search?min_rating=abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/search?date=2w", "", nil).Code)
}

func TestScheduleRoutes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	luis := api.register(t, "Luis")

	w := api.do(t, http.MethodPut, "/api/v1/me/schedule", ana.Token, gin.H{"blocks": []gin.H{
		{"day_of_week": 1, "start_time": "9:00", "end_time": "10:30", "type": "clase"},
		{"day_of_week": 1, "start_time": "10:00", "end_time": "11:00", "type": "estudio"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/me/schedule", ana.Token, gin.H{"blocks": []gin.H{
		{"day_of_week": 3, "start_time": "14:00", "end_time": "16:00", "type": "clase"},
		{"day_of_week": 1, "start_time": "9:00", "end_time": "10:30", "type": "clase"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/users/"+ana.UID+"/profile", luis.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Schedule []struct {
			DayOfWeek int    `json:"day_of_week"`
			StartTime string `json:"start_time"`
		} `json:"schedule"`
	}
	decode(t, w, &profile)
	assert.Empty(t, profile.User.Email)
	require.Len(t, profile.Schedule, 2)
	assert.Equal(t, 1, profile.Schedule[0].DayOfWeek)
	assert.Equal(t, "09:00", profile.Schedule[0].StartTime)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","checks":{"postgres":"ok"}}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flux_http_requests_total")
	assert.Contains(t, w.Body.String(), `flux_http_request_duration_seconds_count{method="GET",route="/healthz"}`)
}

func TestWebsocketReceivesActivity(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register(t, "Ana")
	luis := api.register(t, "Luis")
	g := api.createGroup(t, ana, "Física", false)

	srv := httptest.NewServer(api.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + ana.Token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	type message struct {
		Type    string          `json:"type"`
		GroupID string          `json:"group_id"`
		Data    json.RawMessage `json:"data"`
	}
	read := func() message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	require.NoError(t, conn.WriteJSON(gin.H{"type": "subscribe", "group_id": g.ID}))
	require.Equal(t, "subscribed", read().Type)

	api.joinGroup(t, luis, g.JoinCode)

	msg := read()
	assert.Equal(t, "activity", msg.Type)
	assert.Equal(t, g.ID, msg.GroupID)
	var item struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &item))
	assert.Equal(t, "joined", item.Kind)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	assert.Error(t, err)
}
