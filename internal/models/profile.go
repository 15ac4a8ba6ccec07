package models

import "github.com/dmitrijs2005/consolecache/internal/normalize"

// Profile is the account profile of the signed-in user.
type Profile struct {
	UserEmail string `json:"user_email"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at"`
}

var ProfileFields = struct {
	Envelope, UserEmail, Name, Company, Role, Timezone, CreatedAt []string
}{
	Envelope:  []string{"profile", "user", "data"},
	UserEmail: []string{"user_email", "userEmail", "email"},
	Name:      []string{"name", "full_name", "fullName", "display_name", "displayName", "username"},
	Company:   []string{"company", "company_name", "companyName", "organization", "org"},
	Role:      []string{"role", "user_role", "userRole", "user_type", "userType"},
	Timezone:  []string{"timezone", "time_zone", "timeZone", "tz"},
	CreatedAt: []string{"created_at", "createdAt", "registered_at", "registeredAt"},
}

// NormalizeProfile accepts the profile object itself or an envelope such
// as {"user": {...}}.
func NormalizeProfile(payload any) (Profile, normalize.Report) {
	raw, _ := normalize.UnwrapJSON(payload).(map[string]any)
	if v, ok := normalize.Field(raw, ProfileFields.Envelope...); ok {
		if inner, ok := normalize.UnwrapJSON(v).(map[string]any); ok {
			raw = inner
		}
	}

	f := normalize.NewFields(raw)
	p := Profile{
		UserEmail: f.String(NotAvailable, ProfileFields.UserEmail...),
		Name:      f.String(Unknown, ProfileFields.Name...),
		Company:   f.String(NotAvailable, ProfileFields.Company...),
		Role:      f.String("user", ProfileFields.Role...),
		Timezone:  f.String("UTC", ProfileFields.Timezone...),
		CreatedAt: f.String(nowPlaceholder(), ProfileFields.CreatedAt...),
	}
	return p, f.Report()
}
