package boardsim

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes exposes the board endpoint at /ws, where the firmware serves it.
func (b *Board) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", gin.WrapH(b))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": b.Clients()})
	})
	return r
}
