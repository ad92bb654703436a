package actor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Every metric is labeled with the runtime name under "subsystem".

var (
	actorsCreated = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_created_total",
		Help: "The total number of actors created",
	}, []string{"subsystem"})

	executingActors = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "actor_executing",
		Help: "The number of actors with a batch scheduled or running",
	}, []string{"subsystem"})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_messages_sent_total",
		Help: "The total number of eventual sends, by receiver kind",
	}, []string{"subsystem", "kind"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_messages_processed_total",
		Help: "The total number of messages executed, by outcome",
	}, []string{"subsystem", "outcome"})

	messagePanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_message_panics_total",
		Help: "The total number of messages whose execution panicked",
	}, []string{"subsystem"})

	processingTime = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "actor_processing_time",
		Help: "The time spent executing a message",
		Buckets: []float64{
			0.0001, // 100us
			0.001,  // 1ms
			0.01,   // 10ms
			0.1,    // 100ms
			1,      // 1s
			10,     // 10s
		},
	}, []string{"subsystem"})

	queueTime = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "actor_queue_time",
		Help: "The time a message spent in the mailbox (only with timestamp tracking)",
		Buckets: []float64{
			0.0001, // 100us
			0.001,  // 1ms
			0.01,   // 10ms
			0.1,    // 100ms
			1,      // 1s
			10,     // 10s
		},
	}, []string{"subsystem"})

	batchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_batches_processed_total",
		Help: "The total number of mailbox batches executed",
	}, []string{"subsystem"})

	batchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "actor_batch_size",
		Help:    "The number of messages per executed batch",
		Buckets: []float64{1, 2, 4, 8, 16, 64, 256, 1024},
	}, []string{"subsystem"})

	submissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_submissions_rejected_total",
		Help: "The total number of batch tasks the worker pool refused",
	}, []string{"subsystem"})

	schedulerFaults = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_scheduler_faults_total",
		Help: "The total number of batch loops that failed outside message execution",
	}, []string{"subsystem"})

	promisesCreated = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_promises_created_total",
		Help: "The total number of promises created",
	}, []string{"subsystem"})

	promisesSettled = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_promises_settled_total",
		Help: "The total number of promises settled, by final state",
	}, []string{"subsystem", "state"})

	resolutionViolations = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_resolution_violations_total",
		Help: "The total number of attempts to settle an already settled promise",
	}, []string{"subsystem"})

	farReferencesCreated = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_far_references_created_total",
		Help: "The total number of far references created",
	}, []string{"subsystem"})

	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "actor_transferred_objects_total",
		Help: "The total number of objects deep-copied between actors",
	}, []string{"subsystem"})
)
