// Package network is the boundary to whatever actually puts artifacts on a
// chain. deploygrid never signs or broadcasts anything itself; it hands a
// Network a request tagged with the action's correlation key and waits for a
// confirmed receipt.
//
// Two implementations exist: simnet, a deterministic in-process simulator,
// and gateway, a JSON client for an external relayer service.
package network
