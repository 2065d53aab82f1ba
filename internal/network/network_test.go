package network

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptErr(t *testing.T) {
	assert.NoError(t, Receipt{}.Err())

	err := Receipt{Reverted: true, RevertReason: "Unauthorized"}.Err()
	assert.ErrorIs(t, err, ErrReverted)
	assert.ErrorContains(t, err, "Unauthorized")

	assert.Equal(t, ErrReverted, Receipt{Reverted: true}.Err())
}

func TestTransport(t *testing.T) {
	err := Transport(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorContains(t, err, "connection reset")
}

func TestReceiptJSON(t *testing.T) {
	r := Receipt{
		CorrelationKey:  "0xabc",
		TxHash:          common.HexToHash("0x01"),
		BlockNumber:     7,
		ContractAddress: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		ReturnData:      []byte{0x01, 0x02},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"return_data":"0x0102"`)

	var back Receipt
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}
