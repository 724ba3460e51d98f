package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
)

// ErrRequestFailed is returned for non-2xx responses.
var ErrRequestFailed = errors.New("request failed")

type client struct {
	host string
	http *http.Client
	out  io.Writer
	in   io.Reader
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// get performs a GET and prints the response body.
func (c *client) get(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodGet, path, nil)
}

// post sends body as JSON and prints the response body.
func (c *client) post(ctx context.Context, path string, body []byte) error {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *client) do(ctx context.Context, method, path string, body []byte) error {
	endpoint, err := url.JoinPath(c.host, path)
	if err != nil {
		return fmt.Errorf("failed to build url: %w", err)
	}
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e apiError
		if json.Unmarshal(raw, &e) == nil && e.Code != "" {
			return fmt.Errorf("%w: %d %s: %s", ErrRequestFailed, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%w: %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return c.print(raw)
}

// print indents JSON bodies and copies anything else through.
func (c *client) print(raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = c.out.Write(raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(c.out)
	return err
}

// readDocument loads a JSON or YAML file ("-" for stdin) and returns it as
// JSON.
func (c *client) readDocument(path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(c.in)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := yaml.Parser().Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return out, nil
}
