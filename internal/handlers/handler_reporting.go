package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
	"github.com/DubeTracker/dube_ledger_app/internal/middleware"
)

// reportingHandler handles read-only aggregate report endpoints.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := &reportingHandler{reportingService: reportingService}

	reports := rg.Group("/reports")
	{
		reports.GET("/outstanding", h.getOutstandingByCustomer)
		reports.GET("/status-totals", h.getStatusTotals)
		reports.GET("/overdue", h.listOverdueCredits)
	}
}

// getOutstandingByCustomer godoc
// @Summary Outstanding balances per customer
// @Description Returns, per customer, the number of open credits and the total outstanding balance, largest debt first.
// @Tags reports
// @Produce json
// @Success 200 {array} dto.CustomerOutstandingResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/outstanding [get]
func (h *reportingHandler) getOutstandingByCustomer(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	rows, err := h.reportingService.GetOutstandingByCustomer(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to build outstanding report")
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerOutstandingResponses(rows))
}

// getStatusTotals godoc
// @Summary Credit totals grouped by status
// @Description Returns credit counts, total amounts and paid amounts grouped by credit status.
// @Tags reports
// @Produce json
// @Success 200 {array} dto.StatusTotalResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/status-totals [get]
func (h *reportingHandler) getStatusTotals(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	rows, err := h.reportingService.GetStatusTotals(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to build status totals report")
		return
	}

	c.JSON(http.StatusOK, dto.ToStatusTotalResponses(rows))
}

// listOverdueCredits godoc
// @Summary Overdue credits
// @Description Returns the requesting user's outstanding credits older than the given number of days, with customer contact details.
// @Tags reports
// @Produce json
// @Param olderThanDays query int false "Minimum age in days (default 30)"
// @Success 200 {array} dto.OverdueCreditResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/overdue [get]
func (h *reportingHandler) listOverdueCredits(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	olderThanDays, err := strconv.Atoi(c.DefaultQuery("olderThanDays", "30"))
	if err != nil || olderThanDays < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "olderThanDays must be a non-negative integer"})
		return
	}

	rows, err := h.reportingService.ListOverdueCredits(c.Request.Context(), time.Duration(olderThanDays)*24*time.Hour)
	if err != nil {
		respondWithError(c, err, "Failed to build overdue report")
		return
	}

	// The sweep query spans all owners for the reminder job; the API only
	// ever shows the caller their own ledger.
	own := make([]domain.OverdueCredit, 0, len(rows))
	for _, row := range rows {
		if row.OwnerUserID == userID {
			own = append(own, row)
		}
	}

	c.JSON(http.StatusOK, dto.ToOverdueCreditResponses(own, time.Now()))
}
