// Package dag holds the dependency graph of actions and turns it into a
// deterministic execution order.
//
// Every node carries the declaration sequence number assigned by the
// builder. Whenever several nodes are ready at the same time the one with the
// lowest number goes first, so the same definitions always produce the same
// plan.
package dag
