package metrics

// InitializeMetrics pre-populates the expected label combinations so every
// metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(presets []string) {
	for _, preset := range presets {
		ThumbnailCacheHitsTotal.WithLabelValues(preset)
		ThumbnailGenerationDuration.WithLabelValues(preset)
		ThumbnailsGeneratedTotal.WithLabelValues(preset, "success")
		ThumbnailsGeneratedTotal.WithLabelValues(preset, "error")
	}

	for _, mode := range []string{"direct", "sendfile"} {
		for _, status := range []string{"200", "304", "404"} {
			MediaServedTotal.WithLabelValues(mode, status)
		}
	}

	for _, op := range []string{"initialize_schema", "upsert_album", "upsert_photo",
		"photo_by_id", "can_view", "create_user", "set_password", "validate_credentials",
		"create_session", "session_user", "delete_session", "clean_sessions", "get_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	AuthAttemptsTotal.WithLabelValues("success")
	AuthAttemptsTotal.WithLabelValues("failure")
}
