package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	depositdomain "github.com/leaseway/leaseway/internal/deposit/domain"
)

func (s *Server) PayDeposit(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	actor, err := snowflake.ParseString(c.GetHeader(HeaderParty))
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req depositdomain.PayDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.depositSvc.PayDeposit(c.Request.Context(), id, actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
