// Package http exposes the dashboard over HTTP: the page itself, uploads,
// chart images and specs, CSV exports, health and the status WebSocket.
// Errors are written as RFC 7807 problems through internal/errors.
package http
