// Package metrics defines roost's Prometheus metrics and exposes them on
// the daemon's local-only /metrics endpoint.
//
// All metrics are registered at package init() against the default
// Prometheus registry; all but roost_reload_duration_seconds are updated
// directly from pkg/proxy and pkg/certs:
//
//   - roost_proxy_requests_total{listen_port, outcome}: forwarded requests
//   - roost_proxy_request_duration_seconds{listen_port}: forwarding latency
//   - roost_proxy_backend_errors_total{reason}: 502s by cause (no_mapping,
//     unreachable, bad_target)
//   - roost_proxy_bind_failures_total{port}: listener bind failures
//   - roost_proxy_listeners_active: ports currently bound
//   - roost_cert_renewals_total{outcome}: leaf renewals performed
//   - roost_cert_resolver_cache_total{result}: SNI resolver cache hit/miss
//   - roost_reload_duration_seconds: histogram for config/cert reload time;
//     registered, but no code path in roost observes it
//
// Timer is a small helper for timing an operation and recording its
// duration to a histogram (or histogram vector) when it completes.
package metrics
