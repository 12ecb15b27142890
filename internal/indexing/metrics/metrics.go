package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesConsumed tracks messages pulled from the input queue
	MessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_messages_consumed_total",
			Help: "Total number of messages consumed",
		},
		[]string{"queue"},
	)

	// DecodeFailures tracks messages that could not be decoded
	DecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_decode_failures_total",
			Help: "Total number of messages that failed to decode",
		},
		[]string{"queue"},
	)

	// ProcessFailures tracks decoded payloads that failed processing
	ProcessFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_process_failures_total",
			Help: "Total number of payloads that failed processing",
		},
		[]string{"queue"},
	)

	// DeadLetters tracks dead-letter publishes by outcome
	DeadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_dead_letters_total",
			Help: "Total number of dead-letter publishes",
		},
		[]string{"queue", "status"},
	)

	// Commits tracks offset commits by outcome
	Commits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_commits_total",
			Help: "Total number of offset commits",
		},
		[]string{"queue", "status"},
	)

	// BlocksUploaded tracks blocks written to ledger storage
	BlocksUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_blocks_uploaded_total",
			Help: "Total number of blocks uploaded",
		},
		[]string{"kind"},
	)

	// EntriesUploaded tracks entry summaries written alongside blocks
	EntriesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestor_entries_uploaded_total",
			Help: "Total number of entry summaries uploaded",
		},
	)

	// FileRecordsProcessed tracks bulk file records by outcome
	FileRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_file_records_processed_total",
			Help: "Total number of bulk file records processed",
		},
		[]string{"status"},
	)

	// ProcessLatency tracks block processing latency
	ProcessLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestor_process_latency_seconds",
			Help:    "Payload processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// LatestUploadedSlot tracks the highest slot uploaded
	LatestUploadedSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestor_latest_uploaded_slot",
			Help: "Highest slot uploaded by the ingestor",
		},
	)

	// SlotsPruned tracks blocks removed by the retention pruner
	SlotsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestor_slots_pruned_total",
			Help: "Total number of blocks removed by retention",
		},
	)

	// DBConnectionPoolUsage tracks database pool utilization in percent
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestor_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)
