package store

import "time"

const (
	KindIdentity  = "identity"
	KindCondition = "condition"
)

type ProjectInput struct {
	Key     string
	Path    string
	Folder  string
	Summary string
	Applied bool
	// Hash covers everything above except Key; unchanged projects can be skipped.
	Hash   string
	Links  []Link
	Issues []Issue
}

type ProjectSummary struct {
	Key            string
	Path           string
	Folder         string
	Summary        string
	Applied        bool
	IdentityLinks  int
	ConditionLinks int
	Errors         int
	Warnings       int
	ReportedAt     time.Time
}

type Link struct {
	Kind       string
	Source     string
	Dest       string
	Priority   int32
	Archetype  uint32
	Package    string
	Conditions string
}

type Issue struct {
	Severity string
	Code     string
	Message  string
	Path     string
	Line     int
}
