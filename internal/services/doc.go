// Package services contains the synchronization orchestrator.
//
// SyncService pulls a fixed list of independent resources for one principal
// and writes each into its own store partition. Every resource runs its own
// fetch → normalize → write pipeline; an error or panic in one resource
// marks only that resource failed and leaves its previously cached value in
// place. The pass result is informational.
package services
