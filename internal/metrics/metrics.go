// Package metrics define los collectors Prometheus del dominio. Vive en un
// paquete propio para evitar ciclos entre notify/ledger y el paquete HTTP.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailgate_notifications_total",
		Help: "Notificaciones orquestadas por kind y resultado",
	}, []string{"kind", "result"}) // result: delivered|failed|invalid|unresolved|error

	NotificationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mailgate_notification_duration_seconds",
		Help:    "Duración de Orchestrator.Send de punta a punta",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	TransportFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailgate_transport_failures_total",
		Help: "Fallas del transporte por código de diagnóstico",
	}, []string{"diag"})

	LedgerOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailgate_ledger_ops_total",
		Help: "Operaciones del ledger por propósito, operación y resultado",
	}, []string{"purpose", "op", "result"})
)

// ObserveNotification registra el resultado de un Send.
func ObserveNotification(kind, result string, d time.Duration) {
	NotificationsTotal.WithLabelValues(kind, result).Inc()
	NotificationDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordTransportFailure cuenta una falla de transporte ya diagnosticada.
func RecordTransportFailure(diag string) {
	if diag == "" {
		diag = "unknown"
	}
	TransportFailures.WithLabelValues(diag).Inc()
}

// RecordLedger cuenta una operación del ledger (op: issue|consume).
func RecordLedger(purpose, op, result string) {
	LedgerOpsTotal.WithLabelValues(purpose, op, result).Inc()
}

// Register registra los collectors del dominio en reg (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		NotificationsTotal,
		NotificationDuration,
		TransportFailures,
		LedgerOpsTotal,
	} {
		if err := RegisterCollector(reg, c); err != nil {
			return err
		}
	}
	return nil
}

// RegisterCollector registra el collector ignorando duplicados.
func RegisterCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
