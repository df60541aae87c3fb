package enums

import "fmt"

// MemberRole is the store-level role carried in marketplace access tokens.
type MemberRole string

const (
	MemberRoleOwner   MemberRole = "owner"
	MemberRoleAdmin   MemberRole = "admin"
	MemberRoleManager MemberRole = "manager"
	MemberRoleViewer  MemberRole = "viewer"
	MemberRoleAgent   MemberRole = "agent"
	MemberRoleStaff   MemberRole = "staff"
	MemberRoleOps     MemberRole = "ops"
)

// forecastAccess maps every known role to whether it may read forecasts.
// Delivery agents see orders, not sales history.
var forecastAccess = map[MemberRole]bool{
	MemberRoleOwner:   true,
	MemberRoleAdmin:   true,
	MemberRoleManager: true,
	MemberRoleViewer:  true,
	MemberRoleStaff:   true,
	MemberRoleOps:     true,
	MemberRoleAgent:   false,
}

func (m MemberRole) String() string {
	return string(m)
}

func (m MemberRole) IsValid() bool {
	_, ok := forecastAccess[m]
	return ok
}

// CanViewForecasts reports whether the role may call the forecast endpoints.
func (m MemberRole) CanViewForecasts() bool {
	return forecastAccess[m]
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", value)
	}
	return role, nil
}
