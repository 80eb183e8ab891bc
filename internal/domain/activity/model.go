package activity

import "time"

type Type string

const (
	TypeLicenseCreated        Type = "license_created"
	TypeLicenseDeactivated    Type = "license_deactivated"
	TypeSubscriptionCancelled Type = "subscription_cancelled"
	TypeLicenseReactivated    Type = "license_reactivated"
	TypeLicenseDeleted        Type = "license_deleted"
	TypeEmailSent             Type = "email_sent"
)

// Activity is one entry of the backend's append-only event log.
type Activity struct {
	Type          Type       `json:"type"`
	Details       string     `json:"details,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
}

// Icon returns the Font Awesome icon for the entry; unknown types are validations.
func (t Type) Icon() string {
	switch t {
	case TypeLicenseCreated:
		return "fa-key"
	case TypeLicenseDeactivated:
		return "fa-power-off"
	case TypeSubscriptionCancelled:
		return "fa-ban"
	case TypeLicenseReactivated:
		return "fa-redo"
	case TypeLicenseDeleted:
		return "fa-trash"
	case TypeEmailSent:
		return "fa-envelope"
	}
	return "fa-check-circle"
}

func (t Type) Title() string {
	switch t {
	case TypeLicenseCreated:
		return "License Created"
	case TypeLicenseDeactivated:
		return "License Deactivated"
	case TypeSubscriptionCancelled:
		return "Subscription Cancelled"
	case TypeLicenseReactivated:
		return "License Reactivated"
	case TypeLicenseDeleted:
		return "License Deleted"
	case TypeEmailSent:
		return "Email Sent"
	}
	return "Validation"
}
