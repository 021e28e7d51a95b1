// Package metrics declares the Prometheus instrumentation for the gallery
// server: HTTP traffic, database queries, thumbnail generation, media
// serving, and scanner runs. Metrics are exposed on a dedicated listener.
package metrics
