package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/paramsel/pkg/logger"
)

const maxErrorBody = 4 << 10

// Client queries a remote directory over HTTP:
//
//	GET {base}/devices?query=*dev*&page=0&size=50
//
// answered with {"devices": [...], "next": true}.
type Client struct {
	base *url.URL
	http *http.Client
	opts Options
}

// NewClient returns a client for the directory at baseURL. A nil hc uses a
// client with a 30 second timeout.
func NewClient(baseURL string, hc *http.Client, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid directory url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid directory url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: u, http: hc, opts: opts}, nil
}

type pageResponse struct {
	Devices []Device `json:"devices"`
	Next    bool     `json:"next"`
}

// Search implements Source.
func (c *Client) Search(ctx context.Context, device string) (Pages, Batch, error) {
	query := WildcardQuery(device)
	first, next, err := c.fetch(ctx, query, 0)
	if err != nil {
		return nil, nil, err
	}
	if !next {
		return nil, first, nil
	}
	return &clientPages{client: c, query: query, page: 1}, first, nil
}

func (c *Client) fetch(ctx context.Context, query string, page int) (Batch, bool, error) {
	lgr := logger.FromContext(ctx)

	u := *c.base
	u.Path += "/devices"
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	if c.opts.PageSize > 0 {
		q.Set("size", strconv.Itoa(c.opts.PageSize))
	}
	if c.opts.Filter != "" {
		q.Set("filter", c.opts.Filter)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	lgr.V(1).Info("directory request", logger.QueryKey, query, "page", page)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, false, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, false, fmt.Errorf("%w: %s", ErrUnknownDevice, msg)
		}
		lgr.Error(errors.New(msg), "directory request rejected", logger.QueryKey, query, "status", resp.StatusCode)
		return nil, false, fmt.Errorf("directory returned %s: %s", resp.Status, msg)
	}

	var pr pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, false, fmt.Errorf("failed to decode directory response: %w", err)
	}
	batch := make(Batch, 0, len(pr.Devices))
	for _, d := range pr.Devices {
		batch = append(batch, d.Node())
	}
	return batch, pr.Next, nil
}

type clientPages struct {
	client *Client
	query  string
	page   int
	done   bool
}

func (p *clientPages) Next(ctx context.Context) (Batch, error) {
	if p.done {
		return nil, ErrExhausted
	}
	batch, next, err := p.client.fetch(ctx, p.query, p.page)
	if err != nil {
		return nil, err
	}
	p.page++
	p.done = !next
	if len(batch) == 0 {
		p.done = true
		return nil, ErrExhausted
	}
	return batch, nil
}
