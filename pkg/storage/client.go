// Package storage implements the client for the PythonAnywhere files API.
// The API is path addressed: every file and directory on the remote account
// is reachable at /files/path<absolute path>.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pasync/pasync/pkg/errors"
)

// DefaultBaseURL is the production PythonAnywhere API endpoint.
const DefaultBaseURL = "https://www.pythonanywhere.com"

const defaultTimeout = 60 * time.Second

// Entry describes a single file or directory returned by ListFiles.
type Entry struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Client talks to the remote account. It's the full storage surface;
// the sync executor only consumes the subset it needs.
type Client interface {
	// ListFiles returns the entries in the remote directory, keyed by name.
	ListFiles(remotePath string) (map[string]Entry, error)

	// CreateDirectory creates the remote directory. The API treats an
	// existing directory as an error, which callers are expected to
	// tolerate.
	CreateDirectory(remotePath string) error

	// UploadFile writes the full contents to the remote path, overwriting
	// whatever was there.
	UploadFile(contents io.Reader, remotePath string) error

	// Reload restarts the web app so that the pushed code takes effect.
	Reload() error
}

// RequestError is a non-2xx response from the remote API.
type RequestError struct {
	StatusCode int
	Body       string
}

func (err RequestError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", err.StatusCode, err.Body)
}

// Options are the parameters for connecting to the remote account.
type Options struct {
	Username string
	APIToken string

	// BaseURL overrides the API endpoint. Used in tests.
	BaseURL string

	// Timeout bounds each API call. Zero means the default.
	Timeout time.Duration
}

type client struct {
	opts       Options
	apiRoot    string
	httpClient *http.Client
}

// New creates a client for the given account.
func New(opts Options) (Client, error) {
	if opts.Username == "" {
		return nil, errors.MissingFieldError{Field: "username"}
	}
	if opts.APIToken == "" {
		return nil, errors.MissingFieldError{Field: "apiToken"}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	return &client{
		opts:    opts,
		apiRoot: fmt.Sprintf("%s/api/v0/user/%s", opts.BaseURL, opts.Username),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

func (c *client) ListFiles(remotePath string) (map[string]Entry, error) {
	resp, err := c.do("GET", c.filesURL(remotePath), "", nil)
	if err != nil {
		return nil, err
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(resp, &entries); err != nil {
		return nil, errors.WithContext(err, "parse listing")
	}
	return entries, nil
}

func (c *client) CreateDirectory(remotePath string) error {
	body, err := json.Marshal(map[string]string{"operation": "mkdir"})
	if err != nil {
		return errors.WithContext(err, "marshal request")
	}

	_, err = c.do("POST", c.filesURL(remotePath), "application/json", bytes.NewReader(body))
	return err
}

func (c *client) UploadFile(contents io.Reader, remotePath string) error {
	// The API expects the file contents as the `content` field of a
	// multipart form.
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("content", "content")
	if err != nil {
		return errors.WithContext(err, "create form")
	}
	if _, err := io.Copy(part, contents); err != nil {
		return errors.WithContext(err, "read contents")
	}
	if err := form.Close(); err != nil {
		return errors.WithContext(err, "finish form")
	}

	_, err = c.do("POST", c.filesURL(remotePath), form.FormDataContentType(), &body)
	return err
}

func (c *client) Reload() error {
	url := fmt.Sprintf("%s/webapps/%s.pythonanywhere.com/reload/",
		c.apiRoot, c.opts.Username)
	_, err := c.do("POST", url, "", nil)
	return err
}

func (c *client) filesURL(remotePath string) string {
	return fmt.Sprintf("%s/files/path%s", c.apiRoot, remotePath)
}

func (c *client) do(method, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, errors.WithContext(err, "create request")
	}

	req.Header.Set("Authorization", "Token "+c.opts.APIToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithContext(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithContext(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
