// Package actual talks to an Actual Budget sync server: it logs in, finds a
// budget file, downloads it and unpacks the budget database it contains.
package actual

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budgetsync/internal/log"
	"budgetsync/internal/trace"
)

const (
	headerToken  = "X-ACTUAL-TOKEN"
	headerFileID = "X-ACTUAL-FILE-ID"

	statusOK = "ok"
)

var (
	ErrLogin            = errors.New("actual login failed")
	ErrNotLoggedIn      = errors.New("actual client is not logged in")
	ErrFileNotFound     = errors.New("budget file not found")
	ErrAmbiguousFile    = errors.New("budget file name is ambiguous")
	ErrEncrypted        = errors.New("budget file is encrypted")
	ErrUnexpectedStatus = errors.New("unexpected http status code")
)

// File is one budget file known to the server.
type File struct {
	FileID       string `json:"fileId"`
	GroupID      string `json:"groupId"`
	Name         string `json:"name"`
	EncryptKeyID string `json:"encryptKeyId"`
	Deleted      int    `json:"deleted"`
}

// Encrypted reports whether the file contents are end-to-end encrypted.
func (f File) Encrypted() bool {
	return f.EncryptKeyID != ""
}

// EncryptMeta describes how a downloaded file was encrypted.
type EncryptMeta struct {
	KeyID     string `json:"keyId"`
	Algorithm string `json:"algorithm"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
}

// FileInfo is the server's metadata for a single file.
type FileInfo struct {
	FileID      string       `json:"fileId"`
	GroupID     string       `json:"groupId"`
	Name        string       `json:"name"`
	EncryptMeta *EncryptMeta `json:"encryptMeta"`
}

// UserKey carries what is needed to rebuild a file's encryption key.
type UserKey struct {
	ID   string `json:"id"`
	Salt string `json:"salt"`
	Test string `json:"test"`
}

// envelope is the {"status", "data", "reason"} wrapper around every JSON reply.
type envelope[T any] struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Data   T      `json:"data"`
}

type Client struct {
	httpClient *http.Client
	tracer     *trace.Transport
	baseURL    *url.URL
	token      string
	logger     *log.Logger
}

// NewClient creates a client for the server at baseURL. A nil httpClient
// gets one with the given timeout. Requests go through a trace.Transport
// wrapping the client's own transport.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", baseURL, err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	hc := &http.Client{Timeout: timeout}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	tracer := trace.NewTransport(hc.Transport, logger.WithComponent(log.ComponentActual))
	hc.Transport = tracer

	return &Client{
		httpClient: hc,
		tracer:     tracer,
		baseURL:    u,
		logger:     logger.WithComponent(log.ComponentActual),
	}, nil
}

// Metrics reports the requests this client has sent so far.
func (c *Client) Metrics() trace.Metrics {
	return c.tracer.GetMetrics()
}

// Login exchanges the server password for a session token.
func (c *Client) Login(ctx context.Context, password string) error {
	body := map[string]string{"loginMethod": "password", "password": password}

	var resp envelope[struct {
		Token string `json:"token"`
	}]
	status, err := c.doJSON(ctx, http.MethodPost, "/account/login", body, &resp)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrLogin, err)
		}
		return err
	}
	if resp.Status != statusOK || resp.Data.Token == "" {
		reason := resp.Reason
		if reason == "" {
			reason = "no token returned"
		}
		return fmt.Errorf("%w: %s", ErrLogin, reason)
	}

	c.token = resp.Data.Token
	c.logger.Debug("Logged in to Actual server", log.FieldServer, c.baseURL.Host)
	return nil
}

// ListFiles returns every file on the server, deleted ones included.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	var resp envelope[[]File]
	if _, err := c.doJSON(ctx, http.MethodGet, "/sync/list-user-files", nil, &resp); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return resp.Data, nil
}

// ResolveFile finds the live file whose id or name equals ref. An id match
// wins over a name match; two live files sharing the name is an error.
func (c *Client) ResolveFile(ctx context.Context, ref string) (File, error) {
	files, err := c.ListFiles(ctx)
	if err != nil {
		return File{}, err
	}
	return pickFile(files, ref)
}

func pickFile(files []File, ref string) (File, error) {
	var byName []File
	for _, f := range files {
		if f.Deleted != 0 {
			continue
		}
		if f.FileID == ref {
			return f, nil
		}
		if f.Name == ref {
			byName = append(byName, f)
		}
	}

	switch len(byName) {
	case 0:
		return File{}, fmt.Errorf("%w: %q", ErrFileNotFound, ref)
	case 1:
		return byName[0], nil
	default:
		ids := make([]string, len(byName))
		for i, f := range byName {
			ids[i] = f.FileID
		}
		return File{}, fmt.Errorf("%w: %q matches %s; use the file id", ErrAmbiguousFile, ref, strings.Join(ids, ", "))
	}
}

func (c *Client) FileInfo(ctx context.Context, fileID string) (FileInfo, error) {
	var resp envelope[FileInfo]
	if _, err := c.doJSON(ctx, http.MethodGet, "/sync/get-user-file-info", nil, &resp, fileHeader(fileID)); err != nil {
		return FileInfo{}, fmt.Errorf("file info: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) UserKey(ctx context.Context, fileID string) (UserKey, error) {
	var resp envelope[UserKey]
	body := map[string]string{"fileId": fileID}
	if _, err := c.doJSON(ctx, http.MethodPost, "/sync/user-get-key", body, &resp); err != nil {
		return UserKey{}, fmt.Errorf("user key: %w", err)
	}
	return resp.Data, nil
}

// Download returns the raw file blob: a zip archive, possibly encrypted.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sync/download-user-file", nil, fileHeader(fileID))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	c.logger.Debug("Downloaded budget file", log.FieldFileID, fileID, "bytes", len(data))
	return data, nil
}

type header func(http.Header)

func fileHeader(id string) header {
	return func(h http.Header) { h.Set(headerFileID, id) }
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, headers ...header) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.do(ctx, method, path, body, headers...)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return se.code, err
		}
		return 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

type statusError struct {
	code   int
	path   string
	reason string
}

func (e *statusError) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("%s, %d on %s: %s", ErrUnexpectedStatus, e.code, e.path, e.reason)
	}
	return fmt.Sprintf("%s, %d on %s", ErrUnexpectedStatus, e.code, e.path)
}

func (e *statusError) Unwrap() error { return ErrUnexpectedStatus }

// do sends the request and returns the response when the status is 200.
// Any other status is turned into a *statusError and the body is closed.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers ...header) (*http.Response, error) {
	endpoint := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if path != "/account/login" {
		if c.token == "" {
			return nil, ErrNotLoggedIn
		}
		req.Header.Set(headerToken, c.token)
	}
	for _, h := range headers {
		h(req.Header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var env envelope[json.RawMessage]
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env)
		return nil, &statusError{code: resp.StatusCode, path: path, reason: env.Reason}
	}
	return resp, nil
}
