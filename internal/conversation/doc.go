// Package conversation holds the message stream and drives sends.
//
// # Overview
//
// The Store is a plain in-memory container for the ordered message sequence
// and the document registry; every read returns a copy. The Engine
// orchestrates a send: optimistic user message and loading placeholder,
// one assistant request, reconciliation of the response or failure into the
// stream. Exactly one loading placeholder exists per in-flight send and
// exactly one terminal bot message replaces it.
//
// # Failure recovery
//
// Send failures past the session check never reach the caller: transport
// and decode errors reconcile into a fixed error message, an empty payload
// into a fixed fallback. The only Send errors are ErrNotAuthenticated
// (reported synchronously, before any append) and ErrBusy.
//
// # Serialization
//
// Sends are serialized per conversation: a second Send while one is in
// flight is rejected with ErrBusy rather than allowed to interleave
// placeholders.
package conversation
