// Package remote is the HTTP client for the report server. Every mutation
// is a form-encoded POST answered with JSON; a non-empty "error" field marks
// a failure whatever the status code.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/logging"
)

const (
	csrfCookie    = "csrftoken"
	sessionCookie = "sessionid"

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 8 << 20
	// maxErrorBody bounds how much of an unexpected body ends up in errors.
	maxErrorBody = 200
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client. Its Jar is replaced.
	HTTPClient *http.Client
	// Cookies persists the session between runs. Optional.
	Cookies CookieStore
	Logger  *zerolog.Logger
}

// Client talks to one report server and keeps its session cookies.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     http.CookieJar
	cookies CookieStore
	log     zerolog.Logger
}

// New creates a client for the server at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("server base url is required")
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	} else {
		clone := *hc
		hc = &clone
	}
	hc.Jar = jar
	// Django answers unauthenticated requests with a redirect to the sign-in
	// page; following it would turn an auth failure into an HTML body.
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	c := &Client{
		base:    base,
		http:    hc,
		jar:     jar,
		cookies: opts.Cookies,
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = logging.Component("remote")
	}
	return c, nil
}

// BaseURL returns the server address the client was created for.
func (c *Client) BaseURL() string { return c.base.String() }

// Post sends form as a urlencoded POST to path and decodes the JSON answer
// into out. out may be nil.
func (c *Client) Post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

// PostFile uploads r as the multipart file field named field.
func (c *Client) PostFile(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	return c.PostMultipart(ctx, path, nil, []FilePart{{Field: field, Filename: filename, Reader: r}}, out)
}

// FilePart is one file of a multipart upload.
type FilePart struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// PostMultipart streams fields and files as a multipart POST. Several parts
// may share a field name.
func (c *Client) PostMultipart(ctx context.Context, path string, fields url.Values, files []FilePart, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		_ = pw.CloseWithError(writeParts(mw, fields, files))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		_ = pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func writeParts(mw *multipart.Writer, fields url.Values, files []FilePart) error {
	for name, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(name, v); err != nil {
				return err
			}
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("read %s: %w", f.Filename, err)
		}
	}
	return mw.Close()
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.base
	u.Path = c.base.Path + path
	return &u
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if method != http.MethodGet {
		req.Header.Set("Referer", c.base.String()+"/")
		if token := c.cookie(csrfCookie); token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	id := req.Header.Get("X-Request-ID")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	c.log.Debug().
		Ctx(req.Context()).
		Str("request_id", id).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if isRedirect(resp.StatusCode) {
		if strings.Contains(resp.Header.Get("Location"), "signin") {
			return ErrSignInRequired
		}
		return &StatusError{Code: resp.StatusCode}
	}

	return decode(resp.StatusCode, body, out)
}

// decode applies the server's response convention.
func decode(status int, body []byte, out any) error {
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '{' {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			if envelope.Error != "" {
				return &Error{Message: envelope.Error}
			}
			if !isSuccess(status) {
				return &StatusError{Code: status, Body: truncate(body)}
			}
			if out != nil {
				if err := json.Unmarshal(body, out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		}
	}

	if !isSuccess(status) {
		return &StatusError{Code: status, Body: truncate(body)}
	}
	if len(body) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, truncate(body))
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func isSuccess(status int) bool  { return status >= 200 && status < 300 }
func isRedirect(status int) bool { return status >= 300 && status < 400 }

func truncate(b []byte) string {
	s := string(b)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
