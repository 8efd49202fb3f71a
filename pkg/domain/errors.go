package domain

import "errors"

// ErrNotFound is returned by stores when no entry exists for a conversation ID.
var ErrNotFound = errors.New("not found")

// ErrUnknownTool is returned when a tool has no dispatch entry.
var ErrUnknownTool = errors.New("unknown tool")

// ErrNoMatchingRule is returned when a rule list exists but no predicate matches.
var ErrNoMatchingRule = errors.New("no matching exec rule")

// ErrInvalidSpec is returned when an execution spec cannot be constructed.
var ErrInvalidSpec = errors.New("invalid exec spec")

// ErrRemoteCall is returned when a remote-call envelope carries an error.
var ErrRemoteCall = errors.New("remote call failed")

// ErrInputRejected is returned when an utterance fails inbound sanitization.
var ErrInputRejected = errors.New("input rejected")
