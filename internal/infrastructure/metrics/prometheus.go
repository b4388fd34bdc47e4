package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

var _ inventory.MetricsRecorder = (*Prometheus)(nil)

// Prometheus implementa MetricsRecorder con contadores de Prometheus.
type Prometheus struct {
	reservations *prometheus.CounterVec
	releases     *prometheus.CounterVec
	commits      *prometheus.CounterVec
	anomalies    *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	bulkItems    *prometheus.CounterVec
}

// NewPrometheus crea y registra los contadores en reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_reservations_total",
			Help: "Intentos de reserva por resultado.",
		}, []string{"result"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_releases_total",
			Help: "Liberaciones de reserva, indicando si se recortaron.",
		}, []string{"clamped"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_commits_total",
			Help: "Reservas confirmadas (pedido despachado), indicando si se recortaron.",
		}, []string{"clamped"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_anomalies_total",
			Help: "Cantidades recortadas a un valor seguro por tipo.",
		}, []string{"kind"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_alerts_total",
			Help: "Alertas evaluadas por severidad y si se despacharon.",
		}, []string{"severity", "dispatched"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_bulk_items_total",
			Help: "Ítems de actualización masiva por resultado.",
		}, []string{"result"}),
	}
	reg.MustRegister(p.reservations, p.releases, p.commits, p.anomalies, p.alerts, p.bulkItems)
	return p
}

func (p *Prometheus) Reservation(result string) {
	p.reservations.WithLabelValues(result).Inc()
}

func (p *Prometheus) Release(clamped bool) {
	p.releases.WithLabelValues(strconv.FormatBool(clamped)).Inc()
}

func (p *Prometheus) Commit(clamped bool) {
	p.commits.WithLabelValues(strconv.FormatBool(clamped)).Inc()
}

func (p *Prometheus) Anomaly(kind string) {
	p.anomalies.WithLabelValues(kind).Inc()
}

func (p *Prometheus) Alert(severity entity.Severity, dispatched bool) {
	p.alerts.WithLabelValues(string(severity), strconv.FormatBool(dispatched)).Inc()
}

func (p *Prometheus) BulkItem(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	p.bulkItems.WithLabelValues(result).Inc()
}
