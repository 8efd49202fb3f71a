// Package middleware decorates conversation stores.
package middleware
