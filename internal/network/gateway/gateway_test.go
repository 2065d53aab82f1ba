package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/deploygrid/internal/network"
	"github.com/specialistvlad/deploygrid/internal/network/simnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const code = "0x6080604052"

func newRelay(t *testing.T, opts ...simnet.Option) (*simnet.Network, *Client) {
	t.Helper()
	sim := simnet.New(opts...)
	srv := httptest.NewServer(NewServer(sim, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return sim, c
}

func TestNew(t *testing.T) {
	_, err := New("ftp://relay")
	assert.ErrorContains(t, err, "scheme must be http or https")
	_, err = New("://bad")
	assert.Error(t, err)
	c, err := New("https://relay.example/base/")
	require.NoError(t, err)
	assert.Equal(t, "/base", c.base.Path)
}

func TestDeployCallLookup(t *testing.T) {
	ctx := context.Background()
	sim, c := newRelay(t, simnet.WithReturnData("owner", []byte{0xab}))

	addr, receipt, err := c.Deploy(ctx, network.DeployRequest{Artifact: "RoleStore", Bytecode: code, CorrelationKey: "0x01"})
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(simnet.DefaultDeployer, 0), addr)
	assert.Equal(t, addr, receipt.ContractAddress)

	ret, _, err := c.Call(ctx, network.CallRequest{Address: addr, Function: "owner()", CorrelationKey: "0x02"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab}, []byte(ret))

	found, ok, err := c.Lookup(ctx, "0x01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, receipt, found)

	_, ok, err = c.Lookup(ctx, "0xmissing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 2, sim.SubmissionCount())
}

func TestErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("revert carries the receipt", func(t *testing.T) {
		sim, c := newRelay(t)
		sim.Inject("0x01", simnet.FaultRevert)
		_, receipt, err := c.Deploy(ctx, network.DeployRequest{Bytecode: code, CorrelationKey: "0x01"})
		assert.ErrorIs(t, err, network.ErrReverted)
		assert.True(t, receipt.Reverted)
		assert.Equal(t, "0x01", receipt.CorrelationKey)
	})

	t.Run("relayer transport failure", func(t *testing.T) {
		sim, c := newRelay(t)
		sim.Inject("0x01", simnet.FaultDropConfirmation)
		_, _, err := c.Deploy(ctx, network.DeployRequest{Bytecode: code, CorrelationKey: "0x01"})
		assert.ErrorIs(t, err, network.ErrTransport)
	})

	t.Run("unreachable relayer", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c, err := New(url, WithHTTPClient(&http.Client{Timeout: time.Second}))
		require.NoError(t, err)
		_, _, err = c.Lookup(ctx, "0x01")
		assert.ErrorIs(t, err, network.ErrTransport)
	})

	t.Run("bad request is neither", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "missing bytecode"})
		}))
		defer srv.Close()
		c, err := New(srv.URL)
		require.NoError(t, err)
		_, _, err = c.Deploy(ctx, network.DeployRequest{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, network.ErrTransport)
		assert.NotErrorIs(t, err, network.ErrReverted)
		assert.ErrorContains(t, err, "missing bytecode")
	})
}

func TestTokenIsSent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithToken("s3cret"))
	require.NoError(t, err)
	_, ok, err := c.Lookup(context.Background(), "0x01")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Bearer s3cret", got)
}

func TestServerRejectsMalformedBody(t *testing.T) {
	_, c := newRelay(t)
	resp, err := http.Post(c.base.String()+"/v1/deploy", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
