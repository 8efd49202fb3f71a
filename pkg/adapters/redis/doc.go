// Package redis keeps conversation state in Redis so several replicas can
// serve the same conversations.
package redis
