package handlers_test

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"FileShelf/internal/config"
	"FileShelf/internal/handlers"
	"FileShelf/internal/model"
	"FileShelf/internal/repo"
	"FileShelf/internal/repo/memory"
	"FileShelf/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBackend struct{ mock.Mock }

func (m *mockBackend) Get(key string) (string, bool, error) {
	args := m.Called(key)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *mockBackend) Set(key, value string) error { return m.Called(key, value).Error(0) }
func (m *mockBackend) Remove(key string) error     { return m.Called(key).Error(0) }

var _ repo.Backend = (*mockBackend)(nil)

func newTestRouter(t *testing.T, b repo.Backend) (http.Handler, *service.Shelf) {
	t.Helper()
	cfg := &config.Config{PageURL: "http://localhost:8081/"}
	logger := zap.NewNop().Sugar()
	shelf := service.NewShelf(b, service.Callbacks{}, service.Options{
		Quota:   &model.QuotaConfig{LimitBytes: 1000},
		PageURL: cfg.PageURL,
		Logger:  logger,
	})
	h := handlers.NewHandler(shelf, logger, cfg)
	return h.Router, shelf
}

func uploadItem(name string, data []byte) service.UploadItem {
	return service.UploadItem{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// seed регистрирует alice и загружает два файла
func seed(t *testing.T, shelf *service.Shelf) []model.FileRecord {
	t.Helper()
	_, err := shelf.Register("alice", "")
	require.NoError(t, err)
	_, err = shelf.Upload([]service.UploadItem{
		uploadItem("notes.txt", []byte("hello")),
		uploadItem("report.pdf", []byte("%PDF-1.4")),
	})
	require.NoError(t, err)
	files, err := shelf.List()
	require.NoError(t, err)
	return files
}

func do(router http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandlers_NoIdentity(t *testing.T) {
	router, _ := newTestRouter(t, memory.New(0))

	for _, target := range []string{"/api/files", "/api/storage", "/api/files/x", "/?open=x"} {
		rr := do(router, target)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}

	rr := do(router, "/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHandlers_List(t *testing.T) {
	router, shelf := newTestRouter(t, memory.New(0))
	seed(t, shelf)

	rr := do(router, "/api/files")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var files []handlers.FileDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &files))
	require.Len(t, files, 2)
	assert.Equal(t, "notes.txt", files[0].Name)
	assert.Equal(t, "document", files[0].Category)
	assert.Equal(t, int64(5), files[0].Size)
	assert.NotContains(t, rr.Body.String(), "base64", "content must not be listed")

	rr = do(router, "/api/files?q=pdf")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "report.pdf", files[0].Name)
}

func TestHandlers_Download(t *testing.T) {
	router, shelf := newTestRouter(t, memory.New(0))
	files := seed(t, shelf)

	rr := do(router, "/api/files/"+files[1].ID)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=report.pdf`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", rr.Body.String())

	rr = do(router, "/api/files/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_Shared(t *testing.T) {
	router, shelf := newTestRouter(t, memory.New(0))
	files := seed(t, shelf)

	link, ok, err := shelf.PermanentLink(files[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	u, err := url.Parse(link)
	require.NoError(t, err)

	rr := do(router, "/?"+u.RawQuery)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename=notes.txt`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "hello", rr.Body.String())

	// не просматриваемый тип скачивается под именем из ссылки
	rr = do(router, "/?open="+url.QueryEscape(files[1].ID)+"&name=my%20report.pdf")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="my report.pdf"`, rr.Header().Get("Content-Disposition"))

	rr = do(router, "/?open=unknown")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(router, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"alice"`)
}

func TestHandlers_Storage(t *testing.T) {
	router, shelf := newTestRouter(t, memory.New(0))
	seed(t, shelf)

	rr := do(router, "/api/storage")
	require.Equal(t, http.StatusOK, rr.Code)
	var st handlers.StorageDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, int64(13), st.Used)
	assert.Equal(t, int64(1000), st.Limit)
	assert.InDelta(t, 1.3, st.Percent, 0.0001)
	assert.Equal(t, "13 B/1000 B", st.Display)
}

func TestHandlers_GzipResponse(t *testing.T) {
	router, shelf := newTestRouter(t, memory.New(0))
	seed(t, shelf)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	gr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	defer gr.Close()
	var files []handlers.FileDTO
	require.NoError(t, json.NewDecoder(gr).Decode(&files))
	assert.Len(t, files, 2)
}

func TestHandlers_StorageFailure(t *testing.T) {
	b := &mockBackend{}
	b.On("Get", repo.QuotaKey).Return("", false, nil)
	b.On("Get", repo.ActiveUserKey).Return(`{"userId":"user_alice_1","username":"alice"}`, true, nil)
	b.On("Get", repo.FilesKey("user_alice_1")).Return("", false, errors.New("disk failure"))

	router, _ := newTestRouter(t, b)
	rr := do(router, "/api/files")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	b.AssertExpectations(t)
}
