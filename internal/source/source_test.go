package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/quizrunner/internal/quiz"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDir_FetchAndList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "geo.json", `{"questions": []}`)
	writeFile(t, dir, "math.yaml", "questions: []\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	d, err := NewDir(dir)
	require.NoError(t, err)

	data, err := d.Fetch(context.Background(), "geo.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions": []}`, string(data))

	ids, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"geo.json", "math.yaml"}, ids)
}

func TestDir_FetchNotFound(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "tests")
	require.NoError(t, os.Mkdir(root, 0o755))
	writeFile(t, parent, "secret.json", `{}`)

	d, err := NewDir(root)
	require.NoError(t, err)

	for _, id := range []string{"missing.json", "../secret.json", "", "..", "/etc/passwd"} {
		t.Run(id, func(t *testing.T) {
			_, err := d.Fetch(context.Background(), id)
			var fe *quiz.FetchError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, http.StatusNotFound, fe.Status)
		})
	}
}

func TestNewDir_Invalid(t *testing.T) {
	_, err := NewDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	_, err = NewDir(file)
	assert.Error(t, err)
}

func TestHTTP_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tests/geo.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"questions": []}`))
		case "/tests/broken.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/tests/", 5*time.Second)
	ctx := context.Background()

	data, err := h.Fetch(ctx, "geo.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions": []}`, string(data))

	for id, status := range map[string]int{"missing.json": 404, "broken.json": 500} {
		_, err := h.Fetch(ctx, id)
		var fe *quiz.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, status, fe.Status)
		assert.Equal(t, id, fe.SourceID)
	}
}

func TestHTTP_FetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(url, time.Second).Fetch(context.Background(), "geo.json")
	var fe *quiz.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
	assert.Error(t, fe.Err)
}

func TestHTTP_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTP(srv.URL, 50*time.Millisecond).Fetch(context.Background(), "slow.json")
	assert.True(t, quiz.IsLoadError(err))
}
