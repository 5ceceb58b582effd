package rbac

import "errors"

// Reason is the closed set of denial reasons.
type Reason string

const (
	ReasonForeignTenant    Reason = "ForeignTenant"
	ReasonRestrictedField  Reason = "RestrictedField"
	ReasonSelfEscalation   Reason = "SelfEscalation"
	ReasonSelfDeletion     Reason = "SelfDeletion"
	ReasonQuotaExceeded    Reason = "QuotaExceeded"
	ReasonUnauthenticated  Reason = "Unauthenticated"
	ReasonSuspended        Reason = "Suspended"
	ReasonNotOwner         Reason = "NotOwner"
	ReasonInsufficientRole Reason = "InsufficientRole"
	ReasonTenantRequired   Reason = "TenantRequired"
	ReasonUnknownAction    Reason = "UnknownAction"
)

// Decision is the outcome of an authorization or quota check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var Allow = Decision{Allowed: true}

func Deny(r Reason) Decision { return Decision{Reason: r} }

// Outcome is a low-cardinality label for metrics and logs.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	return string(d.Reason)
}

// Err converts a denial into a *DeniedError; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string { return "rbac: denied: " + string(e.Reason) }

// ReasonOf extracts the denial reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var de *DeniedError
	if errors.As(err, &de) {
		return de.Reason, true
	}
	return "", false
}

// IsDenied reports whether err is a denial with reason r.
func IsDenied(err error, r Reason) bool {
	got, ok := ReasonOf(err)
	return ok && got == r
}
