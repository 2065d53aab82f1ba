// Package simnet is a deterministic, in-process network.Network.
//
// It does not execute bytecode. Deploys get the address a real chain would
// assign for the simulated deployer and its nonce, and every submission
// yields a receipt stored under its correlation key. Tests use the fault
// hooks to reproduce the failure modes that matter to the executor: a
// revert, a lost request, a request that landed but whose confirmation was
// lost, and a request that landed but never answered in time.
package simnet
