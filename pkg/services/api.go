package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/text/encoding/htmlindex"

	"qiita-editor/pkg/models"
)

var ErrDecode = errors.New("decode response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, strings.TrimSpace(e.Body))
}

// Client talks to the item API. It holds no per-request state.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	tokens  oauth2.TokenSource
}

func NewClient(baseURL string, tokens oauth2.TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    http.DefaultClient,
		tokens:  tokens,
	}
}

// Do performs one request and decodes the JSON response into out.
// The token travels as a query parameter; it is masked in errors.
func (c *Client) Do(ctx context.Context, method, path string, payload, out any) error {
	tok, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	query := url.Values{"token": {tok.AccessToken}}
	endpoint := c.BaseURL + path + "?" + query.Encode()
	safeURL := c.BaseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, safeURL, maskToken(err, tok.AccessToken))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, safeURL, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Method: method, URL: safeURL, Code: res.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}

	raw, err = decodeCharset(res.Header.Get("Content-Type"), raw)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, safeURL, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, safeURL, err)
	}
	return nil
}

// decodeCharset converts body to UTF-8 using the charset from contentType.
// UTF-8 is assumed when none is declared.
func decodeCharset(contentType string, body []byte) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Bytes(body)
}

func maskToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
}

func (c *Client) CreateItem(ctx context.Context, payload *models.ItemPayload) (*models.Article, error) {
	var article models.Article
	if err := c.Do(ctx, http.MethodPost, "/items", payload, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) UpdateItem(ctx context.Context, uuid string, payload *models.ItemPayload) (*models.Article, error) {
	var article models.Article
	if err := c.Do(ctx, http.MethodPut, "/items/"+url.PathEscape(uuid), payload, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) ListUserItems(ctx context.Context, username string) ([]models.Article, error) {
	var articles []models.Article
	if err := c.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(username)+"/items", nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) GetItem(ctx context.Context, uuid string) (*models.Article, error) {
	var article models.Article
	if err := c.Do(ctx, http.MethodGet, "/items/"+url.PathEscape(uuid), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}
