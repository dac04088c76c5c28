package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"canvas_ai_server/internal/build"
	"canvas_ai_server/internal/realtime"
	"canvas_ai_server/internal/sitefiles"
	"canvas_ai_server/internal/store"
	"canvas_ai_server/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "owner-secret"

type fakePages struct {
	instructions []string
	result       build.Result
	current      types.PageVersion
	currentErr   error
	versions     map[int]types.PageVersion
	resetErr     error
	resets       int
}

func (f *fakePages) Instruct(_ context.Context, instruction string) build.Result {
	f.instructions = append(f.instructions, instruction)
	return f.result
}

func (f *fakePages) Current(context.Context) (types.PageVersion, error) {
	return f.current, f.currentErr
}

func (f *fakePages) Version(_ context.Context, v int) (types.PageVersion, error) {
	p, ok := f.versions[v]
	if !ok {
		return types.PageVersion{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakePages) Reset(context.Context) error {
	f.resets++
	return f.resetErr
}

func newTestRouter(pages PageService, hub *realtime.Hub, ownerSecret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewAPIHandler(pages, hub, "canvas-typing", ownerSecret))
}

func do(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInstructRequiresOwner(t *testing.T) {
	pages := &fakePages{}
	router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)

	w := do(t, router, http.MethodPost, "/api/page/instruct", "", `{"instruction":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(t, router, http.MethodPost, "/api/page/instruct", "wrong", `{"instruction":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	assert.Empty(t, pages.instructions)

	open := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), "")
	w = do(t, open, http.MethodPost, "/api/page/instruct", "", `{"instruction":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInstructValidatesBody(t *testing.T) {
	pages := &fakePages{}
	router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)

	for _, body := range []string{`{}`, `{"instruction":42}`, `not json`} {
		w := do(t, router, http.MethodPost, "/api/page/instruct", secret, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, pages.instructions)
}

func TestInstructStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		result build.Result
		status int
	}{
		{"success", build.Result{Success: true, Version: 2}, http.StatusOK},
		{"blank", build.Result{Err: build.ErrInvalidInstruction}, http.StatusBadRequest},
		{"conflict", build.Result{Err: errors.Join(errors.New("persist version 2"), store.ErrVersionConflict)}, http.StatusConflict},
		{"channel", build.Result{Err: build.ErrChannelUnavailable}, http.StatusServiceUnavailable},
		{"upstream", build.Result{Err: errors.New("phase structure: generate: boom")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pages := &fakePages{result: tc.result}
			router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)
			w := do(t, router, http.MethodPost, "/api/page/instruct", secret, `{"instruction":"build a page"}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, []string{"build a page"}, pages.instructions)
		})
	}

	pages := &fakePages{result: build.Result{Success: true, Version: 2}}
	router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)
	w := do(t, router, http.MethodPost, "/api/page/instruct", secret, `{"instruction":"go"}`)
	assert.JSONEq(t, `{"success":true,"version":2}`, w.Body.String())
}

func TestCurrentPage(t *testing.T) {
	pages := &fakePages{current: types.PageVersion{Content: sitefiles.InitialPreview(), Files: sitefiles.InitialFiles()}}
	router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)

	w := do(t, router, http.MethodGet, "/api/page/current", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["version"])
	assert.Nil(t, body["created_at"])
	assert.Nil(t, body["instruction"])
	assert.Len(t, body["files"], 3)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pages.current = types.PageVersion{Version: 4, Content: "<p>x</p>", Instruction: "edit", CreatedAt: created, Files: types.FileSet{}}
	w = do(t, router, http.MethodGet, "/api/page/current", "", "")
	assert.JSONEq(t, `{"version":4,"content":"<p>x</p>","files":[],"instruction":"edit","created_at":"2026-01-02T03:04:05Z"}`, w.Body.String())

	pages.currentErr = errors.New("db down")
	w = do(t, router, http.MethodGet, "/api/page/current", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["version"])
}

func TestPageVersion(t *testing.T) {
	pages := &fakePages{versions: map[int]types.PageVersion{1: {Version: 1, Content: "v1"}}}
	router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/page/versions/abc", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/page/versions/0", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/page/versions/9", "", "").Code)

	w := do(t, router, http.MethodGet, "/api/page/versions/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"v1"`)
}

func TestResetPage(t *testing.T) {
	pages := &fakePages{}
	router := newTestRouter(pages, realtime.NewHub(realtime.HubConfig{}), secret)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/page/reset", "", "").Code)
	w := do(t, router, http.MethodPost, "/api/page/reset", secret, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Page state reset successfully"}`, w.Body.String())
	assert.Equal(t, 1, pages.resets)

	pages.resetErr = errors.New("db down")
	w = do(t, router, http.MethodPost, "/api/page/reset", secret, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVerifyAndHealth(t *testing.T) {
	router := newTestRouter(&fakePages{}, realtime.NewHub(realtime.HubConfig{}), secret)

	w := do(t, router, http.MethodPost, "/api/auth/verify", secret, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/auth/verify", "nope", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"valid":false}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidBearer(t *testing.T) {
	assert.True(t, validBearer("Bearer s3cret", "s3cret"))
	assert.False(t, validBearer("s3cret", "s3cret"))
	assert.False(t, validBearer("Bearer ", ""))
	assert.False(t, validBearer("Bearer s3cre", "s3cret"))
}

func TestViewerWebsocketReceivesEnvelopes(t *testing.T) {
	hub := realtime.NewHub(realtime.HubConfig{})
	srv := httptest.NewServer(newTestRouter(&fakePages{}, hub, secret))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ViewerCount("canvas-typing") == 1 }, 2*time.Second, 10*time.Millisecond)

	ch := hub.Channel("canvas-typing")
	ch.Subscribe(nil)
	require.NoError(t, ch.Send(context.Background(), realtime.ChunkEvent{Text: "<h1>", PhaseID: "structure"}))
	hub.RemoveChannel(ch)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"broadcast","event":"chunk","payload":{"text":"<h1>","phaseId":"structure"}}`, string(data))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ViewerCount("canvas-typing") == 0 }, 2*time.Second, 10*time.Millisecond)
}
