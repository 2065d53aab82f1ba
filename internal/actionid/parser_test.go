// internal/actionid/parser_test.go
package actionid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		rawID      string
		expectErr  bool
		expectedID ID
	}{
		{
			name:       "deploy id",
			rawID:      "PoolFactory#PoolFactory",
			expectedID: ID{Module: "PoolFactory", Tag: "PoolFactory"},
		},
		{
			name:       "explicit call tag",
			rawID:      "ExchangeRouter#grantRole1",
			expectedID: ID{Module: "ExchangeRouter", Tag: "grantRole1"},
		},
		{
			name:       "implicit repeated call tag",
			rawID:      "Config#config.setParam~2",
			expectedID: ID{Module: "Config", Tag: "config.setParam~2"},
		},
		{
			name:      "error - empty string",
			rawID:     "",
			expectErr: true,
		},
		{
			name:      "error - missing separator",
			rawID:     "PoolFactory",
			expectErr: true,
		},
		{
			name:      "error - empty module",
			rawID:     "#tag",
			expectErr: true,
		},
		{
			name:      "error - empty tag",
			rawID:     "Module#",
			expectErr: true,
		},
		{
			name:      "error - second separator",
			rawID:     "A#b#c",
			expectErr: true,
		},
		{
			name:      "error - module just dot",
			rawID:     ".#tag",
			expectErr: true,
		},
		{
			name:      "error - whitespace in tag",
			rawID:     "A#grant role",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.rawID)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedID, id)
			assert.Equal(t, tc.rawID, id.String())
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	id := ID{Module: "RoleStore", Kind: KindDeploy, Target: "RoleStore", Tag: "RoleStore"}
	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.True(t, id.Equal(parsed))
}

func TestCorrelationKey(t *testing.T) {
	a := ID{Module: "ExchangeRouter", Tag: "grantRole1"}
	b := ID{Module: "ExchangeRouter", Tag: "grantRole2"}

	assert.Equal(t, a.CorrelationKey(), ID{Module: "ExchangeRouter", Kind: KindCall, Tag: "grantRole1"}.CorrelationKey(),
		"kind and target do not change the key")
	assert.NotEqual(t, a.CorrelationKey(), b.CorrelationKey())
	assert.Len(t, a.CorrelationKey(), 66)
	assert.Equal(t, "0x", a.CorrelationKey()[:2])
}

func TestZeroID(t *testing.T) {
	var id ID
	assert.True(t, id.IsZero())
	assert.Equal(t, "", id.String())
}
