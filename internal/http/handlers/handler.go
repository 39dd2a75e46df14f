package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"product_transactions/internal/domain"
	"product_transactions/internal/logger"
	"product_transactions/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Transactions *service.TransactionService
	Reports      *service.ReportService
	Seeder       *service.Seeder
}

func NewHandler(transactions *service.TransactionService, reports *service.ReportService, seeder *service.Seeder) *Handler {
	return &Handler{
		Transactions: transactions,
		Reports:      reports,
		Seeder:       seeder,
	}
}

// filterParams reads month, year and search from the query string
func filterParams(c *gin.Context) domain.FilterParams {
	return domain.FilterParams{
		Month:  strings.TrimSpace(c.Query("month")),
		Year:   strings.TrimSpace(c.Query("year")),
		Search: c.Query("search"),
	}
}

// queryInt returns the integer value of key, or def when it is missing or
// not a number
func queryInt(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// fail logs err and writes a generic 500
func fail(c *gin.Context, op string, err error) {
	logger.Error("request failed", "op", op, "path", c.Request.URL.Path, "error", err)

	msg := "failed to " + op
	if errors.Is(err, domain.ErrPriceOutOfRange) {
		msg = "price out of histogram range"
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
