package backend

import (
	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

// envelope is the common part of every backend answer.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type checkAuthRequest struct {
	Token string `json:"token"`
}

type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type licensesResponse struct {
	Licenses []license.License `json:"licenses"`
}

type licenseResponse struct {
	License license.License `json:"license"`
}

type CreateLicenseRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Days  int    `json:"days"`
}

type createdLicense struct {
	Key        string `json:"key"`
	LicenseKey string `json:"licenseKey"`
}

type createLicenseResponse struct {
	License createdLicense `json:"license"`
}

type deactivateRequest struct {
	LicenseKey string `json:"licenseKey"`
}

type SendLicenseEmailRequest struct {
	LicenseKey    string `json:"licenseKey"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
}

type EmailType string

const (
	EmailPayment EmailType = "payment"
	EmailRenewal EmailType = "renewal"
)

type sendTestEmailRequest struct {
	Email     string    `json:"email"`
	EmailType EmailType `json:"emailType"`
}

type activityResponse struct {
	Activities []activity.Activity `json:"activities"`
}

// Stats is served only by older backend revisions.
type Stats struct {
	TotalLicenses  int                 `json:"totalLicenses"`
	ActiveLicenses int                 `json:"activeLicenses"`
	MonthlyRevenue float64             `json:"monthlyRevenue"`
	RecentActivity []activity.Activity `json:"recentActivity"`
}

type statsResponse struct {
	Stats Stats `json:"stats"`
}

type Health struct {
	Status  string `json:"status"`
	MongoDB string `json:"mongodb"`
}
