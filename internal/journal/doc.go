// Package journal defines the execution journal: the durable record of which
// actions have been started, completed or failed, and with what result.
//
// The journal is what makes a deployment resumable. An entry that reached
// StatusCompleted is immutable: it is never re-submitted, and every later run
// reuses its result. The only way into StatusCompleted is RecordCompletion,
// and only from StatusInFlight, so two concurrent completions of the same
// action cannot both succeed.
//
// Backends live in sub-packages (memjournal, filejournal, redisjournal) and
// share the transition rules in this package, so they cannot disagree about
// what is legal.
package journal
