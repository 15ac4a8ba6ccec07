package models

import "github.com/dmitrijs2005/consolecache/internal/normalize"

// Session statuses.
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// Session is one login session of a console user.
type Session struct {
	SessionID       string         `json:"session_id"`
	UserEmail       string         `json:"user_email"`
	LoginTime       string         `json:"login_time"`
	LogoutTime      *string        `json:"logout_time"`
	IPAddress       string         `json:"ip_address"`
	DeviceInfo      string         `json:"device_info"`
	Status          string         `json:"status"`
	ActivityDetails map[string]any `json:"activity_details"`
}

var SessionFields = struct {
	ID, UserEmail, LoginTime, LogoutTime, IPAddress, DeviceInfo, Status, ActivityDetails []string
}{
	ID:              []string{"session_id", "sessionId", "id", "_id"},
	UserEmail:       []string{"user_email", "userEmail", "email", "user", "username"},
	LoginTime:       []string{"login_time", "loginTime", "created_at", "createdAt", "start_time", "startTime", "timestamp"},
	LogoutTime:      []string{"logout_time", "logoutTime", "ended_at", "endedAt", "end_time", "endTime"},
	IPAddress:       []string{"ip_address", "ipAddress", "ip", "client_ip", "clientIp"},
	DeviceInfo:      []string{"device_info", "deviceInfo", "user_agent", "userAgent", "device", "browser"},
	Status:          []string{"status", "session_status", "sessionStatus", "state"},
	ActivityDetails: []string{"activity_details", "activityDetails", "activity", "details", "metadata"},
}

var sessionStatusAliases = map[string]string{
	"open":       SessionActive,
	"online":     SessionActive,
	"logged_in":  SessionActive,
	"ended":      SessionClosed,
	"expired":    SessionClosed,
	"logged_out": SessionClosed,
	"terminated": SessionClosed,
}

// NormalizeSession builds a Session from one raw record. When the payload
// has no status, it is derived from the logout time.
func NormalizeSession(raw map[string]any) (Session, normalize.Report) {
	f := normalize.NewFields(raw)

	s := Session{
		SessionID:       f.String(NotAvailable, SessionFields.ID...),
		UserEmail:       f.String(NotAvailable, SessionFields.UserEmail...),
		LoginTime:       f.String(nowPlaceholder(), SessionFields.LoginTime...),
		LogoutTime:      f.OptionalString(SessionFields.LogoutTime...),
		IPAddress:       f.String(NotAvailable, SessionFields.IPAddress...),
		DeviceInfo:      f.String(Unknown, SessionFields.DeviceInfo...),
		ActivityDetails: f.Object(SessionFields.ActivityDetails...),
	}

	if status := f.OptionalString(SessionFields.Status...); status != nil {
		s.Status = canonicalStatus(*status, sessionStatusAliases)
	} else if s.LogoutTime == nil {
		s.Status = SessionActive
	} else {
		s.Status = SessionClosed
	}

	return s, f.Report()
}

// SessionStats aggregates a session list.
type SessionStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Closed int `json:"closed"`
}

func AggregateSessions(list []Session) SessionStats {
	st := SessionStats{Total: len(list)}
	for _, s := range list {
		switch s.Status {
		case SessionActive:
			st.Active++
		case SessionClosed:
			st.Closed++
		}
	}
	return st
}
