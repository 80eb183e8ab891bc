package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"go.uber.org/zap"
)

var exportHeader = []string{
	"License Key", "Customer", "Email", "Type", "Status",
	"Activated", "Renewals", "Expires", "Days Left",
}

type ExportHandler struct {
	dashboard *service.DashboardService
	web       *WebHandler
	logger    *zap.Logger
}

func NewExportHandler(dashboardService *service.DashboardService, web *WebHandler, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		dashboard: dashboardService,
		web:       web,
		logger:    logger.Named("ExportHandler"),
	}
}

// LicensesCSV streams the licenses matching the filter and search, unpaginated.
func (h *ExportHandler) LicensesCSV(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Debug("Ignoring malformed export query", zap.Error(err))
	}

	licenses, err := h.dashboard.Selected(c.Request.Context(), sess, req.Query())
	if err != nil {
		h.web.fail(c, sess, err, "/")
		return
	}

	now := time.Now()
	filename := fmt.Sprintf("licenses-%s.csv", now.Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for i := range licenses {
		row := dashboard.NewLicenseRow(&licenses[i], now)
		daysLeft := ""
		if row.DaysLeft >= 0 {
			daysLeft = strconv.Itoa(row.DaysLeft)
		}
		_ = w.Write([]string{
			row.Key,
			row.CustomerName,
			row.CustomerEmail,
			string(row.Type),
			string(row.Status),
			strconv.FormatBool(row.Activated),
			strconv.Itoa(row.Renewals),
			row.Expires,
			daysLeft,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.Error("Failed to write CSV export", zap.Error(err))
	}
}
