package models

import "github.com/dmitrijs2005/consolecache/internal/normalize"

// Erasure report statuses.
const (
	ReportCompleted = "completed"
	ReportFailed    = "failed"
)

// Report is an erasure report. The API groups reports by year and month.
type Report struct {
	ReportID      string         `json:"report_id"`
	UserEmail     string         `json:"user_email"`
	ReportName    string         `json:"report_name"`
	ErasureMethod string         `json:"erasure_method"`
	DeviceCount   int            `json:"device_count"`
	Status        string         `json:"status"`
	CreatedAt     string         `json:"created_at"`
	Details       map[string]any `json:"details"`
}

var ReportFields = struct {
	ID, UserEmail, Name, Method, DeviceCount, Status, CreatedAt, Details []string
}{
	ID:          []string{"report_id", "reportId", "id", "_id"},
	UserEmail:   []string{"user_email", "userEmail", "email", "owner", "created_by", "createdBy"},
	Name:        []string{"report_name", "reportName", "name", "title"},
	Method:      []string{"erasure_method", "erasureMethod", "method", "standard", "algorithm"},
	DeviceCount: []string{"device_count", "deviceCount", "devices", "total_devices", "totalDevices"},
	Status:      []string{"status", "report_status", "reportStatus", "result", "state"},
	CreatedAt:   []string{"created_at", "createdAt", "date", "timestamp", "erased_at", "erasedAt"},
	Details:     []string{"details", "report_details", "reportDetails", "data", "metadata"},
}

var reportStatusAliases = map[string]string{
	"complete":  ReportCompleted,
	"success":   ReportCompleted,
	"succeeded": ReportCompleted,
	"passed":    ReportCompleted,
	"done":      ReportCompleted,
	"error":     ReportFailed,
	"failure":   ReportFailed,
	"fail":      ReportFailed,
}

func NormalizeReport(raw map[string]any) (Report, normalize.Report) {
	f := normalize.NewFields(raw)

	r := Report{
		ReportID:      f.String(NotAvailable, ReportFields.ID...),
		UserEmail:     f.String(NotAvailable, ReportFields.UserEmail...),
		ReportName:    f.String(NotAvailable, ReportFields.Name...),
		ErasureMethod: f.String(Unknown, ReportFields.Method...),
		DeviceCount:   f.Int(0, ReportFields.DeviceCount...),
		Status:        canonicalStatus(f.String(Unknown, ReportFields.Status...), reportStatusAliases),
		CreatedAt:     f.String(nowPlaceholder(), ReportFields.CreatedAt...),
		Details:       f.Object(ReportFields.Details...),
	}
	return r, f.Report()
}

type ReportStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Other     int `json:"other"`
	Devices   int `json:"devices"`
}

func AggregateReports(list []Report) ReportStats {
	st := ReportStats{Total: len(list)}
	for _, r := range list {
		switch r.Status {
		case ReportCompleted:
			st.Completed++
		case ReportFailed:
			st.Failed++
		default:
			st.Other++
		}
		st.Devices += r.DeviceCount
	}
	return st
}
