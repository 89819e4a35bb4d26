// Package core provides the fundamental types and interfaces for the aps package.
//
// This package contains:
//   - ScheduleJob, SchedulePlan and their child data models with GORM annotations
//   - Read-side ProductionOrder and OrderAttribute models
//   - Storage interface defining the persistence contract
//   - Error types for job orchestration and plan lifecycle operations
//
// Most users should import the root package github.com/openmes/aps
// instead of this package directly.
package core
