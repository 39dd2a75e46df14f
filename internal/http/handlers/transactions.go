package handlers

import (
	"net/http"

	"product_transactions/internal/domain"

	"github.com/gin-gonic/gin"
)

// ListTransactions handles GET /api/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	q := domain.ListQuery{
		FilterParams: filterParams(c),
		Page:         queryInt(c, "page", domain.DefaultPage),
		PerPage:      queryInt(c, "perPage", domain.DefaultPerPage),
	}

	page, err := h.Transactions.ListTransactions(c.Request.Context(), q)
	if err != nil {
		fail(c, "fetch transactions", err)
		return
	}
	c.JSON(http.StatusOK, page)
}
