package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
)

func contractID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, contractdomain.ErrContractNotFound)
		return 0, false
	}
	return id, true
}

func (s *Server) CreateContract(c *gin.Context) {
	var req contractdomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.contractSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetContract(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := s.contractSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (s *Server) ListContractHistory(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if _, err := s.contractSvc.Get(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	entries, err := s.historySvc.List(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (s *Server) ActivateContract(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := s.contractSvc.Activate(c.Request.Context(), id, actorID(c), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type terminateRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) TerminateContract(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req terminateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	contract, err := s.contractSvc.Terminate(c.Request.Context(), id, req.Reason, actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
