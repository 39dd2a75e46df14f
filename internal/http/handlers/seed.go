package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Seed handles POST /api/seed. With force=true the dataset is loaded even
// when the store is not empty.
func (h *Handler) Seed(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))

	res, err := h.Seeder.Seed(c.Request.Context(), force)
	if err != nil {
		fail(c, "seed database", err)
		return
	}

	status := http.StatusOK
	if res.Inserted > 0 {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}
