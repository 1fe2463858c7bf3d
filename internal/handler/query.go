package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// IntQuery reads a query parameter as an int, zero when absent or malformed.
func IntQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
