// Package storage provides storage implementations for schedule persistence.
//
// This package includes:
//   - GormStorage: A GORM-based implementation supporting various databases
//
// The Storage interface is defined in pkg/core and must be implemented
// by any custom storage backend.
//
// Most users should import the root package github.com/openmes/aps
// which provides NewGormStorage() to create storage instances.
package storage
