package storage

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasync/pasync/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Options{
		Username: "testuser",
		APIToken: "test-token",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)
	return client, server
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{APIToken: "token"})
	assert.Equal(t, errors.MissingFieldError{Field: "username"}, err)

	_, err = New(Options{Username: "user"})
	assert.Equal(t, errors.MissingFieldError{Field: "apiToken"}, err)
}

func TestListFiles(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/api/v0/user/testuser/files/path/home/testuser/app", r.URL.Path)
			assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode(map[string]Entry{
				"app.py": {Type: "file"},
				"static": {Type: "directory"},
			})
		}))

	entries, err := client.ListFiles("/home/testuser/app")
	require.NoError(t, err)
	assert.Equal(t, map[string]Entry{
		"app.py": {Type: "file"},
		"static": {Type: "directory"},
	}, entries)
}

func TestCreateDirectory(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/v0/user/testuser/files/path/home/testuser/app/sub", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, err := ioutil.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"operation": "mkdir"}`, string(body))

			w.WriteHeader(http.StatusCreated)
		}))

	assert.NoError(t, client.CreateDirectory("/home/testuser/app/sub"))
}

func TestUploadFile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/v0/user/testuser/files/path/home/testuser/app/a.txt", r.URL.Path)

			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, _, err := r.FormFile("content")
			require.NoError(t, err)
			defer file.Close()

			contents, err := ioutil.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(contents))

			w.WriteHeader(http.StatusCreated)
		}))

	err := client.UploadFile(strings.NewReader("hello"), "/home/testuser/app/a.txt")
	assert.NoError(t, err)
}

func TestReload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t,
				"/api/v0/user/testuser/webapps/testuser.pythonanywhere.com/reload/",
				r.URL.Path)
		}))

	assert.NoError(t, client.Reload())
}

func TestRequestError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "bad token")
		}))

	err := client.CreateDirectory("/home/testuser/app/sub")
	require.Error(t, err)

	reqErr, ok := errors.RootCause(err).(RequestError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
	assert.Equal(t, "bad token", reqErr.Body)
}
