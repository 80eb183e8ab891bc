package dto

import (
	"time"

	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

type DashboardRequest struct {
	Filter       string `form:"filter"`
	Search       string `form:"search"`
	Page         int    `form:"page,default=1" binding:"omitempty,gte=1"`
	ActivityPage int    `form:"activityPage,default=1" binding:"omitempty,gte=1"`
	Refresh      bool   `form:"refresh"`
}

func (r *DashboardRequest) Query() dashboard.Query {
	return dashboard.Query{
		Filter:       license.ParseFilter(r.Filter),
		Search:       r.Search,
		LicensePage:  r.Page,
		ActivityPage: r.ActivityPage,
	}
}

type ActivityRequest struct {
	Page    int  `form:"page,default=1" binding:"omitempty,gte=1"`
	Refresh bool `form:"refresh"`
}

type RevenueResponse struct {
	dashboard.Revenue
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"asOf"`
}

type AuditListResponse struct {
	Entries []*audit.Entry `json:"entries"`
}
