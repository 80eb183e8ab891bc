package dto

import (
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

type CreateLicenseRequest struct {
	Email string `json:"email" form:"email"`
	Name  string `json:"name" form:"name"`
	Days  int    `json:"days" form:"days" binding:"omitempty,gte=0"`
}

type CreateLicenseResponse struct {
	LicenseKey string `json:"licenseKey"`
	Days       int    `json:"days"`
	Message    string `json:"message"`
}

type SendLicenseEmailRequest struct {
	CustomerEmail string `json:"customerEmail" form:"customerEmail"`
	CustomerName  string `json:"customerName" form:"customerName"`
}

type SendTestEmailRequest struct {
	Email     string `json:"email" form:"email"`
	EmailType string `json:"emailType" form:"emailType" binding:"omitempty,oneof=payment renewal"`
}

type DeleteLicenseResponse struct {
	LicenseKey string `json:"licenseKey"`
	// Degraded is set when the backend could not be reached and the license
	// was only removed from this session's view.
	Degraded bool   `json:"degraded"`
	Message  string `json:"message"`
}

type ListLicensesRequest struct {
	Filter  string `form:"filter" binding:"omitempty,oneof=all active inactive expired monthly activated not-activated"`
	Search  string `form:"search"`
	Page    int    `form:"page,default=1" binding:"omitempty,gte=1"`
	Refresh bool   `form:"refresh"`
}

func (r *ListLicensesRequest) Query() dashboard.Query {
	return dashboard.Query{Filter: license.ParseFilter(r.Filter), Search: r.Search, LicensePage: r.Page}
}

type LicenseListResponse struct {
	Licenses []dashboard.LicenseRow `json:"licenses"`
	Page     dashboard.Page         `json:"page"`
	Matching int                    `json:"matching"`
	Stale    bool                   `json:"stale"`
}

type ActivityListResponse struct {
	Activities []dashboard.ActivityRow `json:"activities"`
	Page       dashboard.Page          `json:"page"`
}
