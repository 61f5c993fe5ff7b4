package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests for financial reports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvc
}

func newReportingHandler(reportingService portssvc.ReportingSvc) *reportingHandler {
	return &reportingHandler{reportingService: reportingService}
}

func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvc) {
	h := newReportingHandler(reportingService)
	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.trialBalance)
		reports.GET("/general-ledger/:accountCode", h.generalLedger)
		reports.GET("/income-statement", h.incomeStatement)
		reports.GET("/deferred-revenue/:kind/:id", h.deferredRevenue)
	}
}

// parsePeriod reads the from/to query parameters. Both are required
// for period reports.
func parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing from date"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing to date"})
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to date is before from date"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// trialBalance godoc
// @Summary Trial balance report
// @Description Per-account opening balance, period debit/credit totals and closing balance over posted journals.
// @Tags reports
// @Produce  json
// @Param   from query string true "Period start (RFC 3339)"
// @Param   to query string true "Period end (RFC 3339)"
// @Param   branchID query string false "Branch filter"
// @Success 200 {object} dto.TrialBalanceResponse
// @Router /reports/trial-balance [get]
func (h *reportingHandler) trialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	resp, err := h.reportingService.GetTrialBalance(c.Request.Context(), from, to, c.Query("branchID"))
	if err != nil {
		logger.Error("Failed to generate trial balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate trial balance"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// generalLedger godoc
// @Summary General ledger report for one account
// @Description Chronological lines with running balance, carried forward from the opening balance.
// @Tags reports
// @Produce  json
// @Param   accountCode path string true "Account code"
// @Param   from query string true "Period start (RFC 3339)"
// @Param   to query string true "Period end (RFC 3339)"
// @Success 200 {object} dto.GeneralLedgerResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /reports/general-ledger/{accountCode} [get]
func (h *reportingHandler) generalLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	resp, err := h.reportingService.GetGeneralLedger(c.Request.Context(), c.Param("accountCode"), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to generate general ledger", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate general ledger"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// incomeStatement godoc
// @Summary Income statement report
// @Description Net amounts per revenue and expense account over a period.
// @Tags reports
// @Produce  json
// @Param   from query string true "Period start (RFC 3339)"
// @Param   to query string true "Period end (RFC 3339)"
// @Param   branchID query string false "Branch filter"
// @Success 200 {object} dto.IncomeStatementResponse
// @Router /reports/income-statement [get]
func (h *reportingHandler) incomeStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	resp, err := h.reportingService.GetIncomeStatement(c.Request.Context(), from, to, c.Query("branchID"))
	if err != nil {
		logger.Error("Failed to generate income statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate income statement"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// deferredRevenue godoc
// @Summary Deferred revenue schedule for one source reference
// @Description Deferred and recognized movements of the deferred revenue liability attributable to a source entity, with running balance.
// @Tags reports
// @Produce  json
// @Param   kind path string true "Source kind (ENROLLMENT, INVOICE, PAYMENT, REFUND)"
// @Param   id path string true "Source entity ID"
// @Success 200 {object} dto.DeferredRevenueResponse
// @Router /reports/deferred-revenue/{kind}/{id} [get]
func (h *reportingHandler) deferredRevenue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	kind := domain.SourceKind(c.Param("kind"))
	switch kind {
	case domain.SourceEnrollment, domain.SourceInvoice, domain.SourcePayment, domain.SourceRefund:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source kind"})
		return
	}

	source := domain.SourceRef{Kind: kind, ID: c.Param("id")}
	resp, err := h.reportingService.GetDeferredRevenueSchedule(c.Request.Context(), source)
	if err != nil {
		logger.Error("Failed to generate deferred revenue schedule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate deferred revenue schedule"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
