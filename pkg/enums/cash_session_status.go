package enums

// CashSessionStatus tracks a register session lifecycle. Open sessions are
// unique per operator.
type CashSessionStatus string

const (
	CashSessionStatusOpen   CashSessionStatus = "open"
	CashSessionStatusClosed CashSessionStatus = "closed"
)

var cashSessionStatuses = newValueSet("cash session status", CashSessionStatusOpen, CashSessionStatusClosed)

func (c CashSessionStatus) String() string { return string(c) }

func (c CashSessionStatus) IsValid() bool { return cashSessionStatuses.contains(c) }

func ParseCashSessionStatus(value string) (CashSessionStatus, error) {
	return cashSessionStatuses.parse(value)
}
