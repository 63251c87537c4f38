// Package session persists conversations between turns.
//
// A Store saves Records (the serialized ExecutionContext plus the chat
// transcript) and the session Index mapping ids to optional titles. The Index
// is the single source of truth for whether a session exists.
//
// Backends: MemoryStore for tests and ephemeral servers, FileStore for a
// directory of JSON documents and SQLiteStore for a single database file.
//
// Manager layers create/resume, persist, load, list and reset on top of a
// Store. Persistence is handed to a Persister that writes snapshots from a
// single background goroutine so the response path never waits for storage.
package session
