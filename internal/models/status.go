package models

// Status is a derived lifecycle status. Persisted copies are a cache of the
// derivation and may lag behind until the next refresh.
type Status string

const (
	StatusValid         Status = "valid"
	StatusActive        Status = "active"
	StatusExpiringSoon  Status = "expiring_soon"
	StatusExpired       Status = "expired"
	StatusNotApplicable Status = "not_applicable"
)

// NeedsAttention reports whether the status is expiring_soon or expired.
func (s Status) NeedsAttention() bool {
	return s == StatusExpiringSoon || s == StatusExpired
}

// Kind names an entity kind that carries a derived status.
type Kind string

const (
	KindDocument  Kind = "document"
	KindInsurance Kind = "insurance"
)

// IsValidKind checks if k carries a derived status.
func IsValidKind(k Kind) bool {
	return k == KindDocument || k == KindInsurance
}
