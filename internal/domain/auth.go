package domain

// Role is the caller role carried in bearer tokens.
type Role string

const (
	RoleCounselor Role = "COUNSELOR"
	RoleOperator  Role = "OPERATOR"
	RoleAdmin     Role = "ADMIN"
)

// CanManageWork reports whether the role may scan and reassign.
func (r Role) CanManageWork() bool {
	return r == RoleOperator || r == RoleAdmin
}
