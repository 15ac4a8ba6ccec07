package resources

import "github.com/dmitrijs2005/consolecache/internal/store"

const (
	PartitionLicenses = "licenses"
	PartitionSessions = "sessions"
	PartitionReports  = "reports"
	PartitionSubUsers = "subusers"
	PartitionProfile  = "profile"
)

// Schema is the current store schema.
//
//	v1: licenses, profile, sessions
//	v2: + reports, subusers
var Schema = store.Schema{
	Version: 2,
	Partitions: []string{
		PartitionLicenses,
		PartitionProfile,
		PartitionSessions,
		PartitionReports,
		PartitionSubUsers,
	},
}

// Endpoints relative to the API base URL. Every request carries the
// principal as the email query parameter.
var Endpoints = struct {
	Licenses, LicenseAssignments, Sessions, Reports, SubUsers, Profile string
}{
	Licenses:           "licenses",
	LicenseAssignments: "licenses/assignments",
	Sessions:           "sessions",
	Reports:            "reports",
	SubUsers:           "subusers",
	Profile:            "profile",
}
