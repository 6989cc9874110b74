package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
	"github.com/DubeTracker/dube_ledger_app/internal/middleware"
)

// creditHandler handles HTTP requests that address a credit directly.
type creditHandler struct {
	creditService portssvc.CreditSvcFacade
}

func registerCreditRoutes(rg *gin.RouterGroup, creditService portssvc.CreditSvcFacade) {
	h := &creditHandler{creditService: creditService}

	credits := rg.Group("/credits")
	{
		credits.GET("/:id", h.getCredit)
		credits.PUT("/:id", h.updateCredit)
		credits.DELETE("/:id", h.deleteCredit)

		credits.POST("/:id/payments", h.recordPayment)
		credits.GET("/:id/payments", h.listPayments)
	}
}

// getCredit godoc
// @Summary Get a credit by ID
// @Description Retrieves a credit with its derived remaining balance and status. Pass withPayments=true to include the payment history.
// @Tags credits
// @Produce json
// @Param id path string true "Credit ID"
// @Param withPayments query bool false "Include payment history"
// @Success 200 {object} dto.CreditResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /credits/{id} [get]
func (h *creditHandler) getCredit(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	withPayments, _ := strconv.ParseBool(c.DefaultQuery("withPayments", "false"))

	credit, err := h.creditService.GetCreditByID(c.Request.Context(), c.Param("id"), withPayments, userID)
	if err != nil {
		respondWithError(c, err, "Failed to get credit")
		return
	}

	c.JSON(http.StatusOK, dto.ToCreditResponse(credit))
}

// updateCredit godoc
// @Summary Edit a credit
// @Description Edits a credit's item, amounts, date or images. The remaining balance and status are recomputed; no payment record is appended.
// @Tags credits
// @Accept json
// @Produce json
// @Param id path string true "Credit ID"
// @Param credit body dto.UpdateCreditRequest true "Fields to update"
// @Success 200 {object} dto.CreditResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /credits/{id} [put]
func (h *creditHandler) updateCredit(c *gin.Context) {
	var req dto.UpdateCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	credit, err := h.creditService.UpdateCredit(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondWithError(c, err, "Failed to update credit")
		return
	}

	c.JSON(http.StatusOK, dto.ToCreditResponse(credit))
}

// deleteCredit godoc
// @Summary Delete a credit
// @Description Deletes a credit together with its payment history.
// @Tags credits
// @Produce json
// @Param id path string true "Credit ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /credits/{id} [delete]
func (h *creditHandler) deleteCredit(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.creditService.DeleteCredit(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondWithError(c, err, "Failed to delete credit")
		return
	}

	c.Status(http.StatusNoContent)
}

// recordPayment godoc
// @Summary Record a payment against one credit
// @Description Records a payment and returns the updated credit. Paying more than the remaining balance is allowed; the balance is floored at zero and the response flags the overpayment.
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Credit ID"
// @Param payment body dto.RecordPaymentRequest true "Payment amount and note"
// @Success 200 {object} dto.RecordPaymentResponse
// @Failure 400 {object} ErrorResponse "Amount must be positive"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /credits/{id}/payments [post]
func (h *creditHandler) recordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	credit, payment, overpayment, err := h.creditService.RecordPayment(c.Request.Context(), c.Param("id"), req.Amount, req.Note, userID)
	if err != nil {
		respondWithError(c, err, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, dto.RecordPaymentResponse{
		Credit:      dto.ToCreditResponse(credit),
		Payment:     dto.ToPaymentResponse(payment),
		Overpayment: overpayment,
	})
}

// listPayments godoc
// @Summary List a credit's payment history
// @Description Returns a page of payment records, newest first. Pass the nextToken from a previous page to continue.
// @Tags payments
// @Produce json
// @Param id path string true "Credit ID"
// @Param limit query int false "Page size (default 20)"
// @Param nextToken query string false "Continuation token from the previous page"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} ErrorResponse "Malformed continuation token"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /credits/{id}/payments [get]
func (h *creditHandler) listPayments(c *gin.Context) {
	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	payments, nextToken, err := h.creditService.ListPayments(c.Request.Context(), c.Param("id"), params.Limit, params.NextToken, userID)
	if err != nil {
		respondWithError(c, err, "Failed to list payments")
		return
	}

	c.JSON(http.StatusOK, dto.ListPaymentsResponse{
		Payments:  dto.ToPaymentResponses(payments),
		NextToken: nextToken,
	})
}
