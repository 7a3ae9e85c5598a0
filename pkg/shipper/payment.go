package shipper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// IsOrderPrepaid reports whether the carrier has nothing to collect on delivery.
// Every adapter goes through this so carriers cannot disagree.
func IsOrderPrepaid(o *Order) bool {
	if o == nil {
		return true
	}
	if !strings.EqualFold(string(o.PaymentMethod), string(PaymentCOD)) {
		return true
	}
	return strings.EqualFold(string(o.PaymentStatus), string(PaymentPaid))
}

// CashToCollect returns the cash-on-delivery amount for a consignment.
// An explicit amount in the delivery details wins; otherwise it is the
// order total rounded to whole units for unpaid COD orders, and zero else.
func CashToCollect(o *Order, d DeliveryDetails) decimal.Decimal {
	if d.AmountToCollect != nil {
		if d.AmountToCollect.IsNegative() {
			return decimal.Zero
		}
		return *d.AmountToCollect
	}
	if IsOrderPrepaid(o) {
		return decimal.Zero
	}
	return o.Total.Round(0)
}
