// Package marketdata fetches exchange rates and Börsdata instruments and
// prices, and saves them in the store.
package marketdata

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/avast/retry-go/v4"
	"github.com/etnz/psw/date"
	"go.uber.org/zap"
)

// diskCache is a RoundTripper that keeps successful responses on disk for
// the rest of the day.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date
	log   *zap.Logger
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	// the key includes the day, so entries expire every day.
	key := fmt.Sprintf("%s %s %s", c.today(), req.Method, req.URL.String())
	key = fmt.Sprintf("psw-%x", sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		return cached, nil
	}
	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	// the query carries the API key, only the path is logged.
	c.log.Debug("http", zap.String("method", req.Method), zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.log.Warn("cache write failed", zap.Error(err))
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	// DumpResponse restores resp.Body after reading it.
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o600)
}

// Daily returns a client caching responses in dir for the day. An empty dir
// uses the system temporary directory.
func Daily(dir string, log *zap.Logger) *http.Client {
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &diskCache{base: http.DefaultTransport, dir: dir, today: date.Today, log: log},
	}
}

// StatusError is returned for a non 200 response.
type StatusError struct {
	Host, Path string
	Code       int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s%s: %s", e.Host, e.Path, e.Status)
}

// getJSON performs an HTTP GET and decodes the JSON response. Network errors,
// rate limiting and server errors are retried.
func getJSON(ctx context.Context, client *http.Client, addr string, attempts uint) (any, error) {
	return retry.DoWithData(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, retry.Unrecoverable(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{Host: req.URL.Host, Path: req.URL.Path, Code: resp.StatusCode, Status: resp.Status}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, serr
			}
			return nil, retry.Unrecoverable(serr)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("invalid JSON from %s%s: %w", req.URL.Host, req.URL.Path, err))
		}
		return v, nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// lookup evaluates a jsonpath expression. jsonpath returns either a single
// value or a list of one, lookup always returns the value.
func lookup(path string, v any) (any, error) {
	val, err := jsonpath.Get(path, v)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	if list, ok := val.([]any); ok && len(list) == 1 {
		val = list[0]
	}
	return val, nil
}

// items returns the list at path.
func items(path string, v any) ([]any, error) {
	val, err := jsonpath.Get(path, v)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is not a list", path)
	}
	return list, nil
}

var errMissing = errors.New("missing field")

func str(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func num(obj map[string]any, key string) (float64, error) {
	switch v := obj[key].(type) {
	case float64:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%s: %w", key, errMissing)
	default:
		return 0, fmt.Errorf("%s: not a number: %v", key, v)
	}
}
