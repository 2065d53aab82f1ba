package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/network"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends "Authorization: Bearer <token>" with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client is a network.Network backed by a relayer.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

var _ network.Network = (*Client)(nil)

// New returns a client for the relayer at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid gateway url %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	c := &Client{base: u, http: &http.Client{Timeout: 5 * time.Minute}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Deploy implements network.Network.
func (c *Client) Deploy(ctx context.Context, req network.DeployRequest) (common.Address, network.Receipt, error) {
	var resp DeployResponse
	receipt, err := c.do(ctx, http.MethodPost, deployPath, req, &resp)
	if err != nil {
		return common.Address{}, receipt, err
	}
	return resp.Address, resp.Receipt, nil
}

// Call implements network.Network.
func (c *Client) Call(ctx context.Context, req network.CallRequest) (hexutil.Bytes, network.Receipt, error) {
	var resp CallResponse
	receipt, err := c.do(ctx, http.MethodPost, callPath, req, &resp)
	if err != nil {
		return nil, receipt, err
	}
	return resp.ReturnData, resp.Receipt, nil
}

// Lookup implements network.Network.
func (c *Client) Lookup(ctx context.Context, correlationKey string) (network.Receipt, bool, error) {
	var r network.Receipt
	_, err := c.do(ctx, http.MethodGet, receiptsPath+correlationKey, nil, &r)
	if errors.Is(err, errNotFound) {
		return network.Receipt{}, false, nil
	}
	if err != nil {
		return network.Receipt{}, false, err
	}
	return r, true, nil
}

var errNotFound = errors.New("not found")

// do sends one request. On a revert it returns the reverted receipt with
// the error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (network.Receipt, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return network.Receipt{}, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return network.Receipt{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return network.Receipt{}, network.Transport(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return network.Receipt{}, network.Transport(err)
	}
	logger.Debug("Gateway request finished.", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(data, out); err != nil {
			return network.Receipt{}, network.Transport(fmt.Errorf("decoding response: %w", err))
		}
		return network.Receipt{}, nil
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return network.Receipt{}, errNotFound
	}

	var e ErrorResponse
	_ = json.Unmarshal(data, &e)
	msg := e.Error
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var receipt network.Receipt
		if e.Receipt != nil {
			receipt = *e.Receipt
		}
		return receipt, network.Reverted(msg)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusRequestTimeout:
		return network.Receipt{}, network.Transport(fmt.Errorf("gateway answered %d: %s", resp.StatusCode, msg))
	default:
		return network.Receipt{}, fmt.Errorf("gateway rejected %s %s with %d: %s", method, path, resp.StatusCode, msg)
	}
}
