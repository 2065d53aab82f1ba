// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the deploy, status and relay commands,
// decoupled from any specific entrypoint like a CLI or server.
//
// A deploy loads module definitions, builds and orders the action graph,
// then runs it against a network while recording every step in a journal.
// Re-running the same deploy against the same journal submits nothing.
package app
