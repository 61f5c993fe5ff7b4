package idempotency

import "fmt"

// Actions performed by the automated event handlers. Together with the
// source entity they form the idempotency key of the resulting journal.
const (
	ActionInvoice            = "invoice"
	ActionDeferredRevenue    = "deferred-revenue"
	ActionCashReceipt        = "cash-receipt"
	ActionRevenueRecognition = "revenue-recognition"
	ActionRefundEntry        = "refund-entry"
)

// Key derives the stable idempotency key for an action on a source
// entity, e.g. Key("payment", "42", ActionCashReceipt) ->
// "payment:42:cash-receipt". The same (entity, action) pair always
// yields the same key, which the journals table enforces as unique.
func Key(entity, id, action string) string {
	return fmt.Sprintf("%s:%s:%s", entity, id, action)
}
