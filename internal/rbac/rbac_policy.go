package rbac

// Grant allows Role to perform Action on Resource.
type Grant struct {
	Role     string
	Resource string
	Action   string
}

// Inheritance gives Role every grant held by Parent.
type Inheritance struct {
	Role   string
	Parent string
}

//go:generate mockgen -source=rbac_policy.go -destination=mock/rbac_policy_mock.go -package=mock
type PolicySource interface {
	Grants() ([]Grant, error)
	Inheritances() ([]Inheritance, error)
}

type staticPolicy struct{}

// NewStaticPolicy returns the built-in route permissions.
func NewStaticPolicy() PolicySource {
	return staticPolicy{}
}

func (staticPolicy) Grants() ([]Grant, error) {
	return []Grant{
		{"employee", "leave", "create"},
		{"employee", "leave", "read"},
		{"employee", "leave", "cancel"},
		{"employee", "balance", "read_own"},

		{"manager", "leave", "approve"},
		{"manager", "team", "read"},
		{"manager", "user", "read"},
		{"manager", "balance", "read_any"},

		{"hr", "leave", "approve"},
		{"hr", "user", "read"},
		{"hr", "balance", "read_any"},

		{"admin", "user", "create"},
		{"admin", "user", "update"},
		{"admin", "rbac", "read"},
	}, nil
}

// Route access only. The approval workflow matches roles exactly, so an
// admin still cannot stand in for a required manager approval.
func (staticPolicy) Inheritances() ([]Inheritance, error) {
	return []Inheritance{
		{"manager", "employee"},
		{"hr", "employee"},
		{"admin", "hr"},
		{"admin", "manager"},
	}, nil
}
