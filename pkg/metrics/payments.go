package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics counts confirmation outcomes per fulfillment path.
type PaymentMetrics struct {
	fulfilled  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	lowSMS     *prometheus.CounterVec
	outOfStock prometheus.Counter
	smsRefunds prometheus.Counter
}

// NewPaymentMetrics registers payment confirmation metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	fulfilled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_fulfilled_total",
		Help: "Transactions fulfilled, by confirmation path.",
	}, []string{"path"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Transactions marked failed, by confirmation path.",
	}, []string{"path"})
	lowSMS := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_low_sms_total",
		Help: "Transactions that could not be fulfilled due to SMS credit.",
	}, []string{"path"})
	outOfStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_voucher_out_of_stock_total",
		Help: "Successful payments with no voucher left to assign.",
	})
	smsRefunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_sms_refund_total",
		Help: "Compensating SMS-credit refunds after failed deliveries.",
	})
	reg.MustRegister(fulfilled, failed, lowSMS, outOfStock, smsRefunds)
	return &PaymentMetrics{
		fulfilled:  fulfilled,
		failed:     failed,
		lowSMS:     lowSMS,
		outOfStock: outOfStock,
		smsRefunds: smsRefunds,
	}
}

// IncFulfilled counts a completed fulfillment for the named path.
func (p *PaymentMetrics) IncFulfilled(path string) {
	if p == nil || p.fulfilled == nil {
		return
	}
	p.fulfilled.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncFailed counts a transaction marked failed for the named path.
func (p *PaymentMetrics) IncFailed(path string) {
	if p == nil || p.failed == nil {
		return
	}
	p.failed.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncLowSMS counts a low-balance fulfillment rejection for the named path.
func (p *PaymentMetrics) IncLowSMS(path string) {
	if p == nil || p.lowSMS == nil {
		return
	}
	p.lowSMS.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncOutOfStock counts a payment collected with no voucher available.
func (p *PaymentMetrics) IncOutOfStock() {
	if p == nil || p.outOfStock == nil {
		return
	}
	p.outOfStock.Inc()
}

// IncSMSRefund counts a compensating refund entry.
func (p *PaymentMetrics) IncSMSRefund() {
	if p == nil || p.smsRefunds == nil {
		return
	}
	p.smsRefunds.Inc()
}
