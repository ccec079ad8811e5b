package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name               string
		total, page, limit int
		wantTotalPages     int
	}{
		{"empty", 0, 1, 10, 0},
		{"exact fit", 20, 1, 10, 2},
		{"partial last page", 21, 1, 10, 3},
		{"single item", 1, 1, 10, 1},
		{"limit one", 5, 3, 1, 5},
		{"zero limit", 5, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.wantTotalPages, p.TotalPages)
		})
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query               string
		wantPage, wantLimit int
	}{
		{"", 1, 10},
		{"?page=3&limit=25", 3, 25},
		{"?page=0&limit=-5", 1, 10},
		{"?page=abc&limit=xyz", 1, 10},
		{"?page=2", 2, 10},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/mobiles"+tt.query, nil)

		page, limit := parsePagination(c)
		assert.Equal(t, tt.wantPage, page, tt.query)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
	}
}
