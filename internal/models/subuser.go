package models

import "github.com/dmitrijs2005/consolecache/internal/normalize"

// SubUser is a delegated account created under a parent user. Records
// owned by a sub-user are visible to its parent.
type SubUser struct {
	SubUserEmail string `json:"subuser_email"`
	ParentEmail  string `json:"user_email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

var SubUserFields = struct {
	Email, ParentEmail, Name, Role, Status, CreatedAt []string
}{
	Email:       []string{"subuser_email", "subuserEmail", "sub_user_email", "email"},
	ParentEmail: []string{"user_email", "userEmail", "parent_email", "parentEmail", "owner"},
	Name:        []string{"name", "full_name", "fullName", "display_name", "displayName"},
	Role:        []string{"role", "subuser_role", "subuserRole", "permission"},
	Status:      []string{"status", "state"},
	CreatedAt:   []string{"created_at", "createdAt", "invited_at", "invitedAt"},
}

func NormalizeSubUser(raw map[string]any) (SubUser, normalize.Report) {
	f := normalize.NewFields(raw)

	u := SubUser{
		SubUserEmail: f.String(NotAvailable, SubUserFields.Email...),
		ParentEmail:  f.String(NotAvailable, SubUserFields.ParentEmail...),
		Name:         f.String(Unknown, SubUserFields.Name...),
		Role:         f.String("user", SubUserFields.Role...),
		Status:       canonicalStatus(f.String("active", SubUserFields.Status...), nil),
		CreatedAt:    f.String(nowPlaceholder(), SubUserFields.CreatedAt...),
	}
	return u, f.Report()
}

type SubUserStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

func AggregateSubUsers(list []SubUser) SubUserStats {
	st := SubUserStats{Total: len(list)}
	for _, u := range list {
		if u.Status == "active" {
			st.Active++
		}
	}
	return st
}

// Delegates returns the sub-user emails whose parent is principal.
func Delegates(list []SubUser, principal string) []string {
	out := make([]string, 0)
	for _, u := range list {
		if u.SubUserEmail != NotAvailable && SameEmail(u.ParentEmail, principal) {
			out = append(out, u.SubUserEmail)
		}
	}
	return out
}
