package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

type fakeStatsSrv struct {
	stats *models.DashboardStats
	hit   bool
	err   error
}

func (f *fakeStatsSrv) Stats(context.Context, string) (*models.DashboardStats, bool, error) {
	return f.stats, f.hit, f.err
}

func TestDashboardHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeStatsSrv{
		stats: &models.DashboardStats{Total: 5, Active: 2, Expiring: 1, Expired: 1, Pending: 1},
		hit:   true,
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	c, rec := authedContext(t, req)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.DashboardStats  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 5, envelope.Data.Total)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerStatsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeStatsSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
