package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
)

func (s *Server) ListStores(c *gin.Context) {
	stores, err := s.catalogSvc.ListStores(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stores})
}

func (s *Server) GetStoreByID(c *gin.Context) {
	store, err := s.catalogSvc.GetStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": store})
}

// GetStoreQuota reads the live budget straight from the ledger, not the
// cached store row.
func (s *Server) GetStoreQuota(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	storeID, err := snowflake.ParseString(raw)
	if err != nil || raw == "" {
		AbortWithError(c, catalogdomain.ErrInvalidStore)
		return
	}

	remaining, err := s.ledger.Remaining(c.Request.Context(), s.db, storeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"store_id":  storeID.String(),
		"remaining": remaining,
	}})
}

func (s *Server) ListStates(c *gin.Context) {
	states, err := s.catalogSvc.ListStateConfigs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": states})
}

func (s *Server) GetProductByID(c *gin.Context) {
	product, err := s.catalogSvc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}
