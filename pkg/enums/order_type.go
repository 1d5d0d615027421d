package enums

// OrderType is derived from the destinations present on an order's lines.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeMixed    OrderType = "mixed"
)

var orderTypes = newValueSet("order type", OrderTypeDineIn, OrderTypeTakeaway, OrderTypeMixed)

func (o OrderType) String() string { return string(o) }

func (o OrderType) IsValid() bool { return orderTypes.contains(o) }

func ParseOrderType(value string) (OrderType, error) {
	return orderTypes.parse(value)
}

// Destination maps single-destination order types to their line destination.
// Mixed orders have no single destination.
func (o OrderType) Destination() (LineDestination, bool) {
	switch o {
	case OrderTypeDineIn:
		return LineDestinationDineIn, true
	case OrderTypeTakeaway:
		return LineDestinationTakeaway, true
	}
	return "", false
}

// RequiresTable reports whether orders of this type must carry a table number.
func (o OrderType) RequiresTable() bool {
	return o == OrderTypeDineIn || o == OrderTypeMixed
}
