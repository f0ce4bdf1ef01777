package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListContractReceipts(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if _, err := s.contractSvc.Get(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	receipts, err := s.rentSvc.ListByContract(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}
