package enums

// KitchenStatus applies to single lines and, aggregated, to orders.
type KitchenStatus string

const (
	KitchenStatusPending KitchenStatus = "pending"
	KitchenStatusReady   KitchenStatus = "ready"
)

var kitchenStatuses = newValueSet("kitchen status", KitchenStatusPending, KitchenStatusReady)

func (k KitchenStatus) String() string { return string(k) }

func (k KitchenStatus) IsValid() bool { return kitchenStatuses.contains(k) }

func ParseKitchenStatus(value string) (KitchenStatus, error) {
	return kitchenStatuses.parse(value)
}
