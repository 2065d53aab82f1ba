// Package gateway talks to a relayer: an external service that owns the
// deployer key, signs, broadcasts and waits for finality.
//
// The wire protocol is JSON over HTTP:
//
//	POST /v1/deploy          network.DeployRequest -> DeployResponse
//	POST /v1/call            network.CallRequest   -> CallResponse
//	GET  /v1/receipts/{key}  -> network.Receipt, or 404
//
// A reverted request answers 422 with the reverted receipt. Any other
// failure, including an unreachable relayer or a 5xx, is a transport error.
//
// Client is the deploygrid side. Server exposes any network.Network under
// the same protocol; `deploygrid relay --network sim` uses it to run a
// simulated relayer for rehearsals.
package gateway
