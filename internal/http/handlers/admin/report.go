package admin

import (
	"fmt"
	"net/http"

	handlershared "github.com/blane-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// GetBankingReport 周银行转账报表
func (h *Handler) GetBankingReport(c *gin.Context) {
	report, err := h.BankingReportService.Generate(c.Request.Context(), c.Query("week_start"), c.Query("week_end"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, report)
}

// ExportBankingReport 导出报表（xlsx/csv）
func (h *Handler) ExportBankingReport(c *gin.Context) {
	file, err := h.BankingReportService.Export(c.Request.Context(), c.Query("week_start"), c.Query("week_end"), c.DefaultQuery("format", "xlsx"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("banking_report_exported", "filename", file.Filename, "bytes", len(file.Content))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// GetSettlementDashboard 结算看板
func (h *Handler) GetSettlementDashboard(c *gin.Context) {
	dashboard, err := h.BankingReportService.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, dashboard)
}
