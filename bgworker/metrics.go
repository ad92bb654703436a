package bgworker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_alive",
		Help: "1 if the worker pool is accepting tasks",
	}, []string{"pool"})

	poolWorkers = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_workers",
		Help: "The configured number of workers",
	}, []string{"pool"})

	tasksSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_tasks_submitted_total",
		Help: "The total number of tasks accepted by the pool",
	}, []string{"pool"})

	tasksRejected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_tasks_rejected_total",
		Help: "The total number of tasks refused because the pool was stopped",
	}, []string{"pool"})

	tasksRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_tasks_running",
		Help: "The number of tasks currently executing",
	}, []string{"pool"})

	taskPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_task_panics_total",
		Help: "The total number of tasks that panicked",
	}, []string{"pool"})

	taskTime = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "worker_pool_task_time",
		Help: "The time spent running a task",
		Buckets: []float64{
			0.001, // 1ms
			0.01,  // 10ms
			0.1,   // 100ms
			1,     // 1s
			10,    // 10s
			60,    // 1m
		},
	}, []string{"pool"})
)
