// Package http exposes the assistant over a small JSON API built on chi.
package http
