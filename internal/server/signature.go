package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	signaturedomain "github.com/leaseway/leaseway/internal/signature/domain"
)

func (s *Server) RequestSignature(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	resp, err := s.signatureSvc.RequestSignature(c.Request.Context(), id, actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListSignatureEvents(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	events, err := s.signatureSvc.ListEvents(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) SignatureCallback(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	// The provider signs the raw body; read it before any decoding.
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, signaturedomain.ErrInvalidPayload)
		return
	}

	result, err := s.signatureSvc.HandleCallback(c.Request.Context(), id, payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
