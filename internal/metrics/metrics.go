package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farmacia"

// Recorder 业务指标（独立 Registry，便于测试）
type Recorder struct {
	registry *prometheus.Registry

	movements      *prometheus.CounterVec
	units          *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	lowStock       prometheus.Counter
	skippedRows    prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	importedRecord *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Stock movements recorded, by type and department.",
		}, []string{"type", "department"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movement_units_total",
			Help:      "Units moved in or out of stock, by type.",
		}, []string{"type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rejections_total",
			Help:      "Dispense/receive requests rejected by the ledger, by reason.",
		}, []string{"reason"}),
		lowStock: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_stock_alerts_total",
			Help:      "Dispensations that left an item below its minimum stock.",
		}),
		skippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_skipped_rows_total",
			Help:      "Movement rows dropped from reports because of unparsable timestamps.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_lookups_total",
			Help:      "Read-view cache lookups, by result (hit/miss).",
		}, []string{"result"}),
		importedRecord: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_records_total",
			Help:      "Bulk import rows, by kind and outcome (created/skipped/invalid).",
		}, []string{"kind", "outcome"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.movements, r.units, r.rejections, r.lowStock, r.skippedRows, r.cacheLookups, r.importedRecord,
	)
	return r
}

// Registry exposes the underlying registry (tests use it with testutil).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler /metrics
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// 以下方法允许 nil 接收者，未配置指标时为空操作

func (r *Recorder) Movement(typ, department string, quantity int) {
	if r == nil {
		return
	}
	r.movements.WithLabelValues(typ, department).Inc()
	r.units.WithLabelValues(typ).Add(float64(quantity))
}

func (r *Recorder) Rejection(reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(reason).Inc()
}

func (r *Recorder) LowStock() {
	if r == nil {
		return
	}
	r.lowStock.Inc()
}

func (r *Recorder) SkippedRows(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skippedRows.Add(float64(n))
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) Imported(kind, outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.importedRecord.WithLabelValues(kind, outcome).Add(float64(n))
}
