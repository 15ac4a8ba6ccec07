// Package resources is the catalog of console resources: their store
// partitions, API endpoints, hooks, sync definitions and demo fixtures.
package resources
