// Package client talks to the record HTTP API and translates its responses
// back into domain errors.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultTimeout = 20 * time.Second

type Client struct {
	http *resty.Client
	log  *zap.Logger
}

type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type DeleteResult struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// New returns a client for the API at baseURL. An empty token sends no
// Authorization header. Requests are never retried.
func New(baseURL, token string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &Client{http: rc, log: log}
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/auth/login")
	if err := c.check("login", resp, err, 0); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

func (c *Client) CreateRecord(ctx context.Context, in domain.RecordInput) (domain.Record, error) {
	var out domain.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/records/")
	if err := c.check("create record", resp, err, 0); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

// SearchRecords omits empty filters from the query string.
func (c *Client) SearchRecords(ctx context.Context, q, category string) ([]domain.Record, error) {
	var out []domain.Record
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{})
	if q != "" {
		req.SetQueryParam("q", q)
	}
	if category != "" {
		req.SetQueryParam("category", category)
	}
	resp, err := req.Get("/records/")
	if err := c.check("search records", resp, err, 0); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Record{}
	}
	return out, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id uint) (DeleteResult, error) {
	var out DeleteResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Delete("/records/" + strconv.FormatUint(uint64(id), 10))
	if err := c.check("delete record", resp, err, id); err != nil {
		return DeleteResult{}, err
	}
	return out, nil
}

func (c *Client) check(op string, resp *resty.Response, err error, id uint) error {
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.Error(err))
		return &domain.TransportError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	detail := http.StatusText(resp.StatusCode())
	if body, ok := resp.Error().(*errorBody); ok && body.Detail != "" {
		detail = body.Detail
	}
	c.log.Debug("api error", zap.String("op", op), zap.Int("status", resp.StatusCode()), zap.String("detail", detail))

	switch status := resp.StatusCode(); {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &domain.ValidationError{Message: detail}
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	case status == http.StatusNotFound && id != 0:
		return &domain.NotFoundError{ID: id}
	case status >= http.StatusInternalServerError:
		return &domain.StorageError{Op: op, Err: errors.New(detail)}
	default:
		return fmt.Errorf("%s: api error (%d): %s", op, status, detail)
	}
}
