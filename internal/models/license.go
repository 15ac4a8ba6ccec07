package models

import "github.com/dmitrijs2005/consolecache/internal/normalize"

// License statuses. Anything else is kept as reported and counted as
// "other" in LicenseStats.
const (
	LicenseActive   = "active"
	LicenseInUse    = "in_use"
	LicenseInactive = "inactive"
	LicenseExpired  = "expired"
)

// License is one purchased license (or seat pool) owned by a user.
type License struct {
	LicenseID    string  `json:"license_id"`
	LicenseKey   string  `json:"license_key"`
	UserEmail    string  `json:"user_email"`
	Product      string  `json:"product"`
	Status       string  `json:"status"`
	Quantity     int     `json:"quantity"`
	Used         int     `json:"used"`
	PurchaseDate string  `json:"purchase_date"`
	ExpiryDate   *string `json:"expiry_date"`
}

var LicenseFields = struct {
	ID, Key, UserEmail, Product, Status, Quantity, Used, PurchaseDate, ExpiryDate []string
}{
	ID:           []string{"license_id", "licenseId", "id", "_id"},
	Key:          []string{"license_key", "licenseKey", "key", "serial", "serial_number"},
	UserEmail:    []string{"user_email", "userEmail", "email", "owner", "owner_email", "ownerEmail", "assigned_to"},
	Product:      []string{"product", "product_name", "productName", "plan", "edition"},
	Status:       []string{"status", "license_status", "licenseStatus", "state"},
	Quantity:     []string{"quantity", "total_licenses", "totalLicenses", "seats", "count"},
	Used:         []string{"used", "used_licenses", "usedLicenses", "consumed", "activations"},
	PurchaseDate: []string{"purchase_date", "purchaseDate", "created_at", "createdAt", "issued_at"},
	ExpiryDate:   []string{"expiry_date", "expiryDate", "expires_at", "expiresAt", "valid_until", "validUntil"},
}

var licenseStatusAliases = map[string]string{
	"enabled":   LicenseActive,
	"valid":     LicenseActive,
	"inuse":     LicenseInUse,
	"assigned":  LicenseInUse,
	"consumed":  LicenseInUse,
	"disabled":  LicenseInactive,
	"available": LicenseInactive,
	"unused":    LicenseInactive,
	"revoked":   LicenseInactive,
	"expire":    LicenseExpired,
	"lapsed":    LicenseExpired,
}

func NormalizeLicense(raw map[string]any) (License, normalize.Report) {
	f := normalize.NewFields(raw)

	l := License{
		LicenseID:    f.String(NotAvailable, LicenseFields.ID...),
		LicenseKey:   f.String(NotAvailable, LicenseFields.Key...),
		UserEmail:    f.String(NotAvailable, LicenseFields.UserEmail...),
		Product:      f.String(Unknown, LicenseFields.Product...),
		Status:       canonicalStatus(f.String(LicenseInactive, LicenseFields.Status...), licenseStatusAliases),
		Quantity:     f.Int(1, LicenseFields.Quantity...),
		Used:         f.Int(0, LicenseFields.Used...),
		PurchaseDate: f.String(nowPlaceholder(), LicenseFields.PurchaseDate...),
		ExpiryDate:   f.OptionalString(LicenseFields.ExpiryDate...),
	}
	return l, f.Report()
}

// LicenseStats keeps active, in-use and inactive licenses in separate
// buckets; callers decide how to group them.
type LicenseStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	InUse     int `json:"in_use"`
	Inactive  int `json:"inactive"`
	Expired   int `json:"expired"`
	Other     int `json:"other"`
	Seats     int `json:"seats"`
	SeatsUsed int `json:"seats_used"`
}

func AggregateLicenses(list []License) LicenseStats {
	st := LicenseStats{Total: len(list)}
	for _, l := range list {
		switch l.Status {
		case LicenseActive:
			st.Active++
		case LicenseInUse:
			st.InUse++
		case LicenseInactive:
			st.Inactive++
		case LicenseExpired:
			st.Expired++
		default:
			st.Other++
		}
		st.Seats += l.Quantity
		st.SeatsUsed += l.Used
	}
	return st
}
