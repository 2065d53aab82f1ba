package gateway

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/specialistvlad/deploygrid/internal/network"
)

const (
	deployPath   = "/v1/deploy"
	callPath     = "/v1/call"
	receiptsPath = "/v1/receipts/"
)

// DeployResponse is the body of a successful deploy.
type DeployResponse struct {
	Address common.Address  `json:"address"`
	Receipt network.Receipt `json:"receipt"`
}

// CallResponse is the body of a successful call.
type CallResponse struct {
	ReturnData hexutil.Bytes   `json:"return_data"`
	Receipt    network.Receipt `json:"receipt"`
}

// ErrorResponse is the body of any non-2xx answer.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Receipt *network.Receipt `json:"receipt,omitempty"`
}
