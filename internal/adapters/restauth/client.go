package restauth

// Package restauth implements ports.AuthProvider against the remote AuthAPI
// REST collaborator (login and registration endpoints).

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/levelup/storefront/internal/domain/model"
	domainsession "github.com/levelup/storefront/internal/domain/session"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/ports"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"

	// maxErrorBodyLen bounds how much of an error response body is read
	// when extracting a failure message.
	maxErrorBodyLen = 4096
)

// Options groups configuration for the AuthAPI client.
type Options struct {
	// BaseURL is the AuthAPI base URL, e.g. "http://localhost:8081".
	BaseURL string
	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client (used in tests).
	HTTPClient *http.Client
}

// Client calls the AuthAPI collaborator over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.AuthProvider = (*Client)(nil)

// NewClient constructs an AuthAPI client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("restauth: BaseURL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: base, http: httpClient}, nil
}

// loginResponse mirrors the AuthAPI login payload.
type loginResponse struct {
	Token   string            `json:"token"`
	Usuario *model.UserRecord `json:"usuario"`
}

// Login exchanges credentials for a session. Invalid credentials and
// validation rejections surface as auth/validation errors; transport
// failures are wrapped as auth errors with the cause preserved.
func (c *Client) Login(ctx context.Context, creds ports.Credentials) (domainsession.Session, error) {
	if strings.TrimSpace(creds.Email) == "" {
		return domainsession.Session{}, apperrors.ValidationField("email", "email is required")
	}
	if creds.Password == "" {
		return domainsession.Session{}, apperrors.ValidationField("password", "password is required")
	}

	var out loginResponse
	if err := c.postJSON(ctx, loginPath, creds, &out); err != nil {
		return domainsession.Session{}, err
	}

	if out.Token == "" || out.Usuario == nil {
		return domainsession.Session{}, apperrors.Auth("auth api returned an incomplete session")
	}
	return domainsession.Session{Token: out.Token, User: out.Usuario}, nil
}

// Register creates a user with the AuthAPI and returns the stored record.
func (c *Client) Register(ctx context.Context, user model.UserRecord) (*model.UserRecord, error) {
	if err := user.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid user")
	}

	var out model.UserRecord
	if err := c.postJSON(ctx, registerPath, user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// postJSON performs a JSON POST and decodes a 2xx response into dst,
// mapping non-2xx statuses to the application error taxonomy.
func (c *Client) postJSON(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, "auth api unreachable")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			// body close failure is best-effort and ignored
			_ = closeErr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatusError(resp)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, "decode auth api response")
	}
	return nil
}

func mapStatusError(resp *http.Response) error {
	msg := remoteMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "invalid credentials"
		}
		return apperrors.Auth(msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "auth api rejected the request"
		}
		return apperrors.Validation(msg)
	case http.StatusConflict:
		if msg == "" {
			msg = "user already exists"
		}
		return apperrors.Conflict(msg)
	default:
		return apperrors.Authf("auth api error (status %d)", resp.StatusCode)
	}
}

// remoteMessage extracts a human-readable message from an error body,
// accepting either {"message": ...} or {"error": ...} shapes.
func remoteMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyLen))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// String implements fmt.Stringer for logging without leaking credentials.
func (c *Client) String() string {
	return fmt.Sprintf("restauth.Client(%s)", c.baseURL)
}
