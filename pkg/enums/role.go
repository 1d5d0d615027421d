package enums

// Role is the caller role supplied by the identity provider.
type Role string

const (
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleKitchen Role = "kitchen"
)

var roles = newValueSet("role", RoleManager, RoleCashier, RoleKitchen)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return roles.contains(r) }

// ParseRole folds case, so tokens carrying "MANAGER" resolve to RoleManager.
func ParseRole(value string) (Role, error) {
	return roles.parse(value)
}
