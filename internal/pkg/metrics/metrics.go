package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess         = "success"
	OutcomeValidation      = "validation"
	OutcomeNotFound        = "not_found"
	OutcomeConflict        = "conflict"
	OutcomeForbidden       = "forbidden"
	OutcomeUniqueViolation = "unique_violation"
	OutcomeRetryable       = "retryable"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

const (
	SkipReasonUserMissing  = "user_missing"
	SkipReasonUserInactive = "user_inactive"
)

// Metrics holds the payroll and leave signals exposed on /metrics.
type Metrics struct {
	payrollRuns        *prometheus.CounterVec
	payrollRunDuration prometheus.Histogram
	payrollRecords     prometheus.Counter
	payrollSkipped     *prometheus.CounterVec
	leaveDecisions     *prometheus.CounterVec
	workingDaysCache   *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics registered on prometheus.DefaultRegisterer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// ResetDefaultForTest drops the singleton so a test can register again.
func ResetDefaultForTest() {
	defaultOnce = sync.Once{}
	defaultMetrics = nil
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		payrollRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_payroll_runs_processed_total",
			Help: "Payroll run processing attempts by outcome.",
		}, []string{"outcome"}),
		payrollRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hris_payroll_run_duration_seconds",
			Help:    "Wall time of payroll run processing.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		payrollRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hris_payroll_records_created_total",
			Help: "Payroll records written by completed runs.",
		}),
		payrollSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_payroll_employees_skipped_total",
			Help: "Active salary structures left out of a run, by reason.",
		}, []string{"reason"}),
		leaveDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_leave_decisions_total",
			Help: "Leave workflow transitions by resulting status.",
		}, []string{"status"}),
		workingDaysCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_working_days_cache_lookups_total",
			Help: "Working-days cache lookups by result.",
		}, []string{"result"}),
	}

	registerer.MustRegister(
		m.payrollRuns,
		m.payrollRunDuration,
		m.payrollRecords,
		m.payrollSkipped,
		m.leaveDecisions,
		m.workingDaysCache,
	)
	return m
}

// ObservePayrollRun records one processing attempt.
func (m *Metrics) ObservePayrollRun(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.payrollRuns.WithLabelValues(ClassifyOutcome(err)).Inc()
	m.payrollRunDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) PayrollRecordsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.payrollRecords.Add(float64(n))
}

func (m *Metrics) PayrollEmployeeSkipped(reason string) {
	if m == nil {
		return
	}
	m.payrollSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) LeaveDecision(status string) {
	if m == nil {
		return
	}
	m.leaveDecisions.WithLabelValues(status).Inc()
}

func (m *Metrics) WorkingDaysCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.workingDaysCache.WithLabelValues(result).Inc()
}

// ClassifyOutcome maps an error to a low-cardinality label.
func ClassifyOutcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCanceled
	}
	if database.IsUniqueViolation(err) {
		return OutcomeUniqueViolation
	}
	if database.IsRetryable(err) {
		return OutcomeRetryable
	}
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return OutcomeValidation
	case apperror.KindNotFound:
		return OutcomeNotFound
	case apperror.KindConflict:
		return OutcomeConflict
	case apperror.KindForbidden:
		return OutcomeForbidden
	}
	return OutcomeError
}
