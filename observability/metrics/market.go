package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketMetrics aggregates the ledger's operational counters. Denomination
// labels distinguish native-currency flows from token flows.
type MarketMetrics struct {
	purchases        *prometheus.CounterVec
	purchaseFailures *prometheus.CounterVec
	withdrawals      *prometheus.CounterVec
	transferFailures *prometheus.CounterVec
}

var (
	marketOnce     sync.Once
	marketRegistry *MarketMetrics
)

func Market() *MarketMetrics {
	marketOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_purchases_total",
				Help: "Count of settled purchases by denomination.",
			}, []string{"denom"}),
			purchaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_purchase_failures_total",
				Help: "Count of rejected purchases by reason.",
			}, []string{"reason"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_withdrawals_total",
				Help: "Count of completed withdrawals by denomination.",
			}, []string{"denom"}),
			transferFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_transfer_failures_total",
				Help: "Count of failed external asset transfers by direction.",
			}, []string{"direction"}),
		}
		prometheus.MustRegister(
			marketRegistry.purchases,
			marketRegistry.purchaseFailures,
			marketRegistry.withdrawals,
			marketRegistry.transferFailures,
		)
	})
	return marketRegistry
}

func (m *MarketMetrics) RecordPurchase(denom string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(denom).Inc()
}

func (m *MarketMetrics) RecordPurchaseFailure(reason string) {
	if m == nil {
		return
	}
	m.purchaseFailures.WithLabelValues(reason).Inc()
}

func (m *MarketMetrics) RecordWithdrawal(denom string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(denom).Inc()
}

func (m *MarketMetrics) RecordTransferFailure(direction string) {
	if m == nil {
		return
	}
	m.transferFailures.WithLabelValues(direction).Inc()
}
