// Package app assembles the dashboard server: configuration, logging,
// telemetry, the status hub, services, routing and the HTTP server
// lifecycle.
package app
