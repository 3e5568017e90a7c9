package models

// TeamRole distinguishes the commissioner from regular members
type TeamRole string

const (
	TeamRoleCommissioner TeamRole = "Commissioner"
	TeamRoleMember       TeamRole = "Member"
)

// Team represents a fantasy team and its owner
type Team struct {
	TeamName string   `json:"team_name"`
	Owner    string   `json:"owner"`
	Role     TeamRole `json:"role"`
	Paid     bool     `json:"paid"`
}

// TeamsResponse is the envelope returned by /teams
type TeamsResponse struct {
	Teams []Team `json:"teams"`
}

// TeamUpdate carries the partial fields sent to /admin/update-team/{index}.
// Nil fields are left untouched by the backend.
type TeamUpdate struct {
	TeamName *string   `json:"team_name,omitempty"`
	Owner    *string   `json:"owner,omitempty"`
	Role     *TeamRole `json:"role,omitempty"`
	Paid     *bool     `json:"paid,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u TeamUpdate) IsEmpty() bool {
	return u.TeamName == nil && u.Owner == nil && u.Role == nil && u.Paid == nil
}

// Apply returns a copy of t with the non-nil update fields applied
func (u TeamUpdate) Apply(t Team) Team {
	if u.TeamName != nil {
		t.TeamName = *u.TeamName
	}
	if u.Owner != nil {
		t.Owner = *u.Owner
	}
	if u.Role != nil {
		t.Role = *u.Role
	}
	if u.Paid != nil {
		t.Paid = *u.Paid
	}
	return t
}

// TeamUpdateResponse is returned by /admin/update-team/{index}
type TeamUpdateResponse struct {
	Team *Team `json:"team"`
}
