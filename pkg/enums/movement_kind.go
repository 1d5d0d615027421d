package enums

// MovementKind classifies audited stock changes.
type MovementKind string

const (
	MovementKindIngress   MovementKind = "ingress"
	MovementKindShrinkage MovementKind = "shrinkage"
)

var movementKinds = newValueSet("movement kind", MovementKindIngress, MovementKindShrinkage)

func (m MovementKind) String() string { return string(m) }

func (m MovementKind) IsValid() bool { return movementKinds.contains(m) }

func ParseMovementKind(value string) (MovementKind, error) {
	return movementKinds.parse(value)
}
