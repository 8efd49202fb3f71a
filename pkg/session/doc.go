/*
Package session serializes work on a conversation.

Turns that share a conversation ID run one at a time: an in-process mutex,
reference counted so idle conversations leave nothing behind, optionally
backed by a distributed lock for deployments with several replicas.
*/
package session
