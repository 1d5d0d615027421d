package enums

// LineDestination marks whether a line is served at a table or packed to go.
type LineDestination string

const (
	LineDestinationDineIn   LineDestination = "dine_in"
	LineDestinationTakeaway LineDestination = "takeaway"
)

var lineDestinations = newValueSet("line destination", LineDestinationDineIn, LineDestinationTakeaway)

func (l LineDestination) String() string { return string(l) }

func (l LineDestination) IsValid() bool { return lineDestinations.contains(l) }

func ParseLineDestination(value string) (LineDestination, error) {
	return lineDestinations.parse(value)
}

// OrderType is the order type of an order whose lines all share this destination.
func (l LineDestination) OrderType() OrderType {
	if l == LineDestinationDineIn {
		return OrderTypeDineIn
	}
	return OrderTypeTakeaway
}
