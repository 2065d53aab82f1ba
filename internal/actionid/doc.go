// internal/actionid/doc.go

/*
Package actionid derives stable identifiers for on-chain actions.

Every deployment and every follow-up call gets an ID computed from structured
input (module, kind, target, tag), never from call-site strings. The canonical
form is `<module>#<tag>`, e.g. `ExchangeRouter#grantRole1` or
`PoolFactory#PoolFactory`. Because the derivation is pure, the same module
graph always yields the same IDs, which is what lets a journal recognise work
done by an earlier run and lets a network receipt be matched back to the
action that caused it (see ID.CorrelationKey).
*/
package actionid
