package enums

// PaymentMethod records how an order was settled. Only cash counts toward
// the expected drawer amount.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodDigital PaymentMethod = "digital"
)

var paymentMethods = newValueSet("payment method", PaymentMethodCash, PaymentMethodDigital)

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return paymentMethods.contains(p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return paymentMethods.parse(value)
}
