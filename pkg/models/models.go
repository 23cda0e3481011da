// Package models defines the domain models for the conversion service
package models

import (
	"time"
)

// SourceType represents the configuration management tool a file came from
type SourceType string

const (
	SourceTypePuppet     SourceType = "puppet"
	SourceTypeChef       SourceType = "chef"
	SourceTypeSalt       SourceType = "salt"
	SourceTypeTerraform  SourceType = "terraform"
	SourceTypeCloudInit  SourceType = "cloud-init"
	SourceTypeShell      SourceType = "shell"
	SourceTypeDockerfile SourceType = "dockerfile"
	SourceTypeUnknown    SourceType = "unknown"
)

// Conversion is an archived pipeline run. One row is written when a
// playbook reaches the deploy step; earlier attempts live only in the
// session and are never persisted.
type Conversion struct {
	ID               string     `json:"id" db:"id"`
	TenantID         string     `json:"tenant_id" db:"tenant_id"`
	SessionID        string     `json:"session_id" db:"session_id"`
	SourceName       string     `json:"source_name" db:"source_name"`
	SourceType       SourceType `json:"source_type" db:"source_type"`
	Playbook         string     `json:"playbook" db:"playbook"`
	Summary          *string    `json:"summary,omitempty" db:"summary"`
	ValidationPassed bool       `json:"validation_passed" db:"validation_passed"`
	CreatedBy        *string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}
