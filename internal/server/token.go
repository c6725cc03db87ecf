package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
)

func (s *Server) ValidateToken(c *gin.Context) {
	var req tokendomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	verdict, err := s.tokenSvc.Validate(c.Request.Context(), normalizeSubmitRequest(req))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": verdict})
}

func (s *Server) CreateToken(c *gin.Context) {
	var req tokendomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.tokenSvc.Submit(c.Request.Context(), normalizeSubmitRequest(req))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if !resp.Verdict.Accepted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) ApproveToken(c *gin.Context) {
	token, err := s.tokenSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": token})
}

func (s *Server) RejectToken(c *gin.Context) {
	token, err := s.tokenSvc.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": token})
}

func (s *Server) GetTokenByCode(c *gin.Context) {
	token, err := s.tokenSvc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": token})
}

func (s *Server) ListTokens(c *gin.Context) {
	var query struct {
		StoreID string `form:"store_id"`
		Status  string `form:"status"`
		Limit   int    `form:"limit"`
		Offset  int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.tokenSvc.List(c.Request.Context(), tokendomain.ListRequest{
		StoreID: strings.TrimSpace(query.StoreID),
		Status:  strings.TrimSpace(query.Status),
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Tokens, "total": resp.Total})
}

func normalizeSubmitRequest(req tokendomain.SubmitRequest) tokendomain.SubmitRequest {
	req.StoreID = strings.TrimSpace(req.StoreID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	return req
}
