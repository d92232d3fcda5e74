package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "klens_documents_ingested_total",
		Help: "Documents stored, by ingestion variant and classification source.",
	}, []string{"variant", "source"})

	ingestionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "klens_ingestion_failures_total",
		Help: "Uploads rejected because the file could not be stored.",
	}, []string{"variant"})

	metadataWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klens_metadata_write_failures_total",
		Help: "Metadata inserts that failed and were skipped.",
	})

	classifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "klens_classifier_calls_total",
		Help: "Completion requests issued by the classifier, by operation and outcome.",
	}, []string{"operation", "outcome"})
)
