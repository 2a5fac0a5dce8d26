package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPrefix is the path under the base URL where the mapping REST API lives
	DefaultPrefix = "rest/mapping"

	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second
)

// Options contains configuration for a mapping service client
type Options struct {
	BaseURL  string
	Prefix   string
	Username string
	Password string
	Timeout  time.Duration
	// Logger receives request traces. Defaults to the logrus standard logger.
	Logger *logrus.Entry
}

// Client issues requests against one mapping service with one authenticated
// session. It is not safe for concurrent use; requests are expected in
// strict sequence.
type Client struct {
	root     *url.URL
	username string
	password string
	http     *http.Client
	log      *logrus.Entry
}

// NewClient creates a new mapping service client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("mapping service URL is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping service URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported mapping service URL scheme '%s' (must be http or https)", base.Scheme)
	}
	root := base.JoinPath(strings.Trim(prefix, "/"))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		root:     root,
		username: opts.Username,
		password: opts.Password,
		http:     &http.Client{Timeout: timeout, Jar: jar},
		log:      log.WithField("service", root.Redacted()),
	}, nil
}

// URL returns the absolute URL of an API path
func (c *Client) URL(path string) string {
	return c.root.JoinPath(path).String()
}

// get issues a GET with discrete query parameters
func (c *Client) get(ctx context.Context, path string, params url.Values) (*simplejson.Json, error) {
	u := c.root.JoinPath(path)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	return c.do(req)
}

// postPayload issues a POST carrying the entity as a JSON payload parameter
func (c *Client) postPayload(ctx context.Context, path string, payload any) (*simplejson.Json, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", path, err)
	}
	form := url.Values{"payload": {string(data)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*simplejson.Json, error) {
	requestID := uuid.NewString()
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := c.log.WithFields(logrus.Fields{
		"method":    req.Method,
		"url":       req.URL.Redacted(),
		"requestID": requestID,
	})
	log.Debug("sending request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL.Redacted(), StatusCode: resp.StatusCode,
			Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("body", string(body)).Error("request rejected")
		return nil, &RequestError{Method: req.Method, URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Body: string(body)}
	}
	log.Debug("request accepted")

	decoded, err := simplejson.NewJson(body)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL.Redacted(), StatusCode: resp.StatusCode,
			Body: string(body), Err: fmt.Errorf("failed to parse response body: %w", err)}
	}
	return decoded, nil
}

// readID extracts a numeric id field from a decoded response
func (c *Client) readID(path string, resp *simplejson.Json, field string) (int64, error) {
	v, ok := resp.CheckGet(field)
	if !ok {
		return 0, &FieldError{URL: c.URL(path), Field: field, Body: encodeBody(resp)}
	}
	id, err := v.Int64()
	if err != nil {
		return 0, &FieldError{URL: c.URL(path), Field: field, Body: encodeBody(resp), Err: err}
	}
	return id, nil
}

// decodeInto re-encodes a decoded response into a typed entity
func decodeInto(resp *simplejson.Json, out any) error {
	data, err := resp.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func encodeBody(resp *simplejson.Json) string {
	data, err := resp.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<unprintable: %v>", err)
	}
	return string(data)
}

func idParam(id int64) string {
	return strconv.FormatInt(id, 10)
}
