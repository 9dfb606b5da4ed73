// Package ypareo queries the Yparéo report endpoint ("requêteur") for students, subject states and unit averages.
package ypareo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
)

const (
	endpoint    = "/r/v1/sql/requeteur"
	tokenHeader = "X-Auth-Token"
	periodParam = "CODE_PERIODE"
)

var ErrNotConfigured = errors.New("ypareo base URL is not configured")

type Client struct {
	baseURL string
	token   string
	reports reports
	rest    *rest.Client
}

type reports struct {
	students, states, averages string
}

var _ bulletin.Source = (*Client)(nil) // interface compliance check

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.Ypareo.BaseURL,
		token:   conf.Ypareo.Token,
		reports: reports{
			students: conf.Ypareo.StudentsReport,
			states:   conf.Ypareo.StatesReport,
			averages: conf.Ypareo.AveragesReport,
		},
		rest: &rest.Client{HTTPClient: &http.Client{Timeout: conf.Ypareo.Timeout}},
	}
}

// SetToken replaces the API token, e.g. after prompting for it.
func (c *Client) SetToken(token string) {
	c.token = token
}

type reportRequest struct {
	Code       string            `json:"code"`
	Parametres map[string]string `json:"parametres"`
}

// ExecuteReport runs the report `code` once and returns its raw rows.
// The endpoint answers either with a JSON array of rows or with an object holding them under "data".
func (c *Client) ExecuteReport(ctx context.Context, code string, params map[string]string) ([]json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if params == nil {
		params = map[string]string{}
	}
	body, err := json.Marshal(reportRequest{Code: code, Parametres: params})
	if err != nil {
		return nil, errors.Wrap(err, "encoding report request")
	}

	res, err := c.rest.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: c.baseURL + endpoint,
		Headers: map[string]string{
			tokenHeader:    c.token,
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "executing report %s", code)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{Report: code, StatusCode: res.StatusCode, Body: res.Body}
	}

	rows, err := decodeRows([]byte(res.Body))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding report %s", code)
	}
	return rows, nil
}

func decodeRows(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []json.RawMessage{}, nil
	}

	var rows []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return []json.RawMessage{}, nil
	}
	return wrapped.Data, nil
}

// StatusError is returned when the report endpoint answers with an HTTP error.
type StatusError struct {
	Report     string
	StatusCode int
	Body       string
}

func (err StatusError) Error() string {
	return fmt.Sprintf("report %s: status %d: %s", err.Report, err.StatusCode, err.Body)
}

func (c *Client) fetch(ctx context.Context, report, period string, dst interface{}) error {
	rows, err := c.ExecuteReport(ctx, report, map[string]string{periodParam: period})
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "re-encoding rows")
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "decoding rows of report %s", report)
	}
	return nil
}
