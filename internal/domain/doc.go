// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (document.go, patch.go, messages.go, errors.go, ...)
// with the scoreboard data model and cross-cutting interfaces. Behaviour that mutates a Document
// lives in the scoreboard package; this package only holds shapes and contracts.
package domain
