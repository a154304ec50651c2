// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DownloadTokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elogbook_download_tokens_issued_total",
		Help: "Download tokens minted while rendering entry listings.",
	})

	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elogbook_downloads_total",
		Help: "Download attempts by outcome.",
	}, []string{"status"})

	DownloadSessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elogbook_download_sessions_swept_total",
		Help: "Expired download sessions discarded by the sweeper.",
	})

	DownloadSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "elogbook_download_sessions",
		Help: "Download sessions currently held in memory.",
	})

	EntriesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elogbook_entries_created_total",
		Help: "Journal entries stored.",
	})
)
