// Package api hosts the operational HTTP listener served alongside crawls.
// Routes:
//   - GET /healthz for liveness probes (JSON status + uptime).
//   - GET /metrics for Prometheus scraping.
package api
