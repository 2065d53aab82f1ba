package integration_tests

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/specialistvlad/deploygrid/internal/app"
	"github.com/specialistvlad/deploygrid/internal/network"
	"github.com/specialistvlad/deploygrid/internal/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lendingDir = filepath.Join("..", "..", "modules", "lending")

func lendingModules(c *app.Config) {
	c.ModulesPath = lendingDir
	c.ParamsPath = filepath.Join(lendingDir, "params.yaml")
}

func TestLending_FullDeployment(t *testing.T) {
	// --- Arrange ---
	h := newHarness(t, map[string]string{"params.yaml": ""})

	// --- Act ---
	report, _, err := h.deploy("ExchangeRouter", lendingModules)

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, report.Executed, 36)
	require.Len(t, h.net.deployed(), 26)
	require.Len(t, h.net.called(), 10)

	byArtifact := make(map[string]network.DeployRequest)
	for _, req := range h.net.deployed() {
		_, dup := byArtifact[req.Artifact]
		require.False(t, dup, "artifact %s deployed twice", req.Artifact)
		byArtifact[req.Artifact] = req
	}

	addrs := h.addresses()
	poolStoreUtils := common.HexToAddress(addrs["StoreUtils#PoolStoreUtils"])
	factory := byArtifact["PoolFactory"]
	assert.Equal(t, poolStoreUtils, factory.Libraries["PoolStoreUtils"])
	assert.Equal(t, common.HexToAddress(addrs["StoreUtils#DexStoreUtils"]), factory.Libraries["DexStoreUtils"])
	assert.Equal(t, poolStoreUtils, byArtifact["CloseUtils"].Libraries["PoolStoreUtils"])
	assert.Equal(t, poolStoreUtils, byArtifact["RedeemUtils"].Libraries["PoolStoreUtils"])
	assert.Equal(t, common.HexToAddress(addrs["RepayUtils#RepayUtils"]), byArtifact["CloseUtils"].Libraries["RepayUtils"])

	router := byArtifact["ExchangeRouter"]
	require.Len(t, router.Args, 9)
	assert.Equal(t, addrs["Router#Router"], jsonString(t, router.Args[0]))
	assert.Equal(t, addrs["Handlers#RedeemHandler"], jsonString(t, router.Args[8]))

	roleStore := common.HexToAddress(addrs["RoleStore#RoleStore"])
	controller := roles.Key("CONTROLLER").Hex()
	grants := 0
	for _, call := range h.net.called() {
		if call.Function != roles.DefaultFunction {
			continue
		}
		assert.Equal(t, roleStore, call.Address)
		require.Len(t, call.Args, 2)
		if jsonString(t, call.Args[1]) == controller {
			grants++
		}
	}
	assert.Equal(t, 8, grants)
}

func TestLending_RerunReusesEverything(t *testing.T) {
	// --- Arrange ---
	h := newHarness(t, map[string]string{"params.yaml": ""})
	_, _, err := h.deploy("ExchangeRouter", lendingModules)
	require.NoError(t, err)
	submitted := len(h.net.deployed()) + len(h.net.called())

	// --- Act ---
	report, out, err := h.deploy("ExchangeRouter", lendingModules, resume)

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, report.Executed)
	assert.Len(t, report.Reused, 36)
	assert.Equal(t, submitted, len(h.net.deployed())+len(h.net.called()))
	assert.Contains(t, out, "reused:   36")
}
