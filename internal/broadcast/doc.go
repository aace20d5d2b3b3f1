// Package broadcast owns the live scoreboard at runtime.
//
// The Hub is an actor: a single goroutine and a command channel, no mutexes. It holds the
// Store and the connection Registry, so a mutation, its snapshot save and the fan-out to
// every viewer finish before the next command is taken. Per-connection writer goroutines
// absorb slow viewers; a viewer whose buffer is full is dropped instead of blocking the Hub.
package broadcast
