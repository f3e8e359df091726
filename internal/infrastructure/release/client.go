package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billing-service/internal/application"
	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/httpx"
	"billing-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// Client talks to the release server that publishes application updates.
type Client struct {
	base         string
	dev          bool
	checkTimeout time.Duration
	json         *httpx.Client
	http         *http.Client
}

var _ application.ReleaseClient = (*Client)(nil)

// New builds a client for baseURL. dev asks the server for development
// builds as well.
func New(baseURL string, dev bool, checkTimeout time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		base:         strings.TrimRight(baseURL, "/"),
		dev:          dev,
		checkTimeout: checkTimeout,
		json:         &httpx.Client{HTTP: hc, MaxElapsed: checkTimeout},
		http:         hc,
	}
}

func (c *Client) CheckLatest(ctx context.Context, installed string) (domain.ReleaseCheck, error) {
	if c.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.checkTimeout)
		defer cancel()
	}
	u := c.base + "/downloads/check/latest/" + url.PathEscape(installed) + "?type=update"
	if c.dev {
		u += "&is_dev=1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.ReleaseCheck{}, fmt.Errorf("release check: %w", err)
	}
	log := logx.L().With(zap.String("op", "release.check"), zap.String("installed", installed))
	var out domain.ReleaseCheck
	if err := c.json.DoJSON(ctx, req, &out, log); err != nil {
		return domain.ReleaseCheck{}, fmt.Errorf("release check: %w", err)
	}
	return out, nil
}

// Download streams the release archive for version into dst.
func (c *Client) Download(ctx context.Context, version string, fromCommand bool, dst io.Writer) error {
	u := c.base + "/downloads/file/" + url.PathEscape(version) + "?type=update"
	if c.dev {
		u += "&is_dev=1"
	}
	if fromCommand {
		u += "&is_cmd=1"
	} else {
		u += "&is_cmd=0"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &httpx.StatusError{Code: resp.StatusCode}
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return err
	}
	logx.L().Info("release.downloaded", zap.String("version", version), zap.Int64("bytes", n))
	return nil
}
