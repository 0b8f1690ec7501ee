package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Значения метки result для операций магазина.
const (
	ResultOK          = "ok"
	ResultInvalid     = "invalid"
	ResultNotFound    = "not_found"
	ResultConflict    = "conflict"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// ShopMetrics содержит метрики операций магазина.
type ShopMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	ordersPlaced   prometheus.Counter
	orderValue     prometheus.Histogram
	unitsPurchased prometheus.Counter
}

// NewShopMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewShopMetricsWithRegisterer регистрирует метрики в переданном registerer.
func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShopMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ecom_shop_operations_total",
			Help: "Total number of shop operations grouped by operation and result",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "ecom_shop_operation_duration_seconds",
			Help:    "Duration of shop operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		orderValue: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_total_price",
			Help:    "Total price of placed orders",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		unitsPurchased: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_units_purchased_total",
			Help: "Total number of product units sold through placed orders",
		}),
	}
}

// RecordOperation учитывает результат и длительность операции.
func (m *ShopMetrics) RecordOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOrderPlaced учитывает оформленный заказ.
func (m *ShopMetrics) RecordOrderPlaced(total decimal.Decimal, units int) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderValue.Observe(total.InexactFloat64())
	m.unitsPurchased.Add(float64(units))
}
