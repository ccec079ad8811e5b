package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Admin Mobile Handlers ---
//

// SpecificationsInput mirrors models.Specifications for payloads.
type SpecificationsInput struct {
	RAM       string `json:"ram"`
	Storage   string `json:"storage"`
	Camera    string `json:"camera"`
	Battery   string `json:"battery"`
	Display   string `json:"display"`
	Processor string `json:"processor"`
}

// CreateMobileInput defines the JSON for POST /api/admin/mobiles/add.
// Price and stock are typed numeric fields so a string can never land
// in the catalog.
type CreateMobileInput struct {
	Brand          string               `json:"brand" binding:"required"`
	Model          string               `json:"model" binding:"required"`
	Price          float64              `json:"price" binding:"gte=0"`
	Stock          int                  `json:"stock" binding:"gte=0"`
	Specifications *SpecificationsInput `json:"specifications"`
	ImageURL       string               `json:"imageUrl"`
	Description    string               `json:"description"`
	IsAvailable    *bool                `json:"isAvailable"`
}

// AdminGetMobiles is the handler for GET /api/admin/mobiles
// Unlike the customer listing this includes unavailable mobiles.
func (h *Handlers) AdminGetMobiles(c *gin.Context) {
	page, limit := parsePagination(c)

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM mobiles").Scan(&total); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count mobiles")
		return
	}

	rows, err := h.DB.Query(
		"SELECT "+mobileColumns+" FROM mobiles ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, (page-1)*limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Database query failed")
		return
	}
	defer rows.Close()

	mobiles := []*models.Mobile{}
	for rows.Next() {
		m, err := scanMobile(rows)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan mobile row")
			return
		}
		mobiles = append(mobiles, m)
	}
	if err := rows.Err(); err != nil {
		respondError(c, http.StatusInternalServerError, "Error iterating mobiles")
		return
	}

	respondPage(c, http.StatusOK, mobiles, NewPagination(total, page, limit))
}

// AdminGetMobile is the handler for GET /api/admin/mobiles/:id
func (h *Handlers) AdminGetMobile(c *gin.Context) {
	row := h.DB.QueryRow("SELECT "+mobileColumns+" FROM mobiles WHERE id = ?", c.Param("id"))
	m, err := scanMobile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Mobile not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch mobile")
		return
	}
	respondData(c, http.StatusOK, m)
}

// CreateMobile is the handler for POST /api/admin/mobiles/add
func (h *Handlers) CreateMobile(c *gin.Context) {
	var input CreateMobileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// Available unless the payload explicitly says false.
	isAvailable := true
	if input.IsAvailable != nil {
		isAvailable = *input.IsAvailable
	}

	specs := models.Specifications{}
	if input.Specifications != nil {
		specs = models.Specifications(*input.Specifications)
	}

	now := time.Now()
	mobile := &models.Mobile{
		Brand:          input.Brand,
		Model:          input.Model,
		Slug:           slug.Make(input.Brand + " " + input.Model),
		Price:          input.Price,
		Stock:          input.Stock,
		Specifications: specs,
		ImageURL:       input.ImageURL,
		Description:    input.Description,
		IsAvailable:    isAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := h.DB.Exec(`
		INSERT INTO mobiles
		(brand, model, slug, price, stock, ram, storage, camera, battery, display, processor,
		image_url, description, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mobile.Brand, mobile.Model, mobile.Slug, mobile.Price, mobile.Stock,
		specs.RAM, specs.Storage, specs.Camera, specs.Battery, specs.Display, specs.Processor,
		mobile.ImageURL, mobile.Description, mobile.IsAvailable, now, now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to insert mobile")
		return
	}

	mobile.ID, err = result.LastInsertId()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get new mobile ID")
		return
	}

	respondMessage(c, http.StatusOK, "Mobile added successfully", mobile)
}

// UpdateMobileInput defines the JSON for PUT /api/admin/mobiles/update/:id.
// All fields optional; only supplied ones are written.
type UpdateMobileInput struct {
	Brand          *string              `json:"brand"`
	Model          *string              `json:"model"`
	Price          *float64             `json:"price" binding:"omitempty,gte=0"`
	Stock          *int                 `json:"stock" binding:"omitempty,gte=0"`
	Specifications *SpecificationsInput `json:"specifications"`
	ImageURL       *string              `json:"imageUrl"`
	Description    *string              `json:"description"`
	IsAvailable    *bool                `json:"isAvailable"`
}

// UpdateMobile is the handler for PUT /api/admin/mobiles/update/:id
func (h *Handlers) UpdateMobile(c *gin.Context) {
	mobileID := c.Param("id")

	var input UpdateMobileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	setClauses := []string{}
	args := []interface{}{}

	appendSet := func(column string, value interface{}) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}

	if input.Brand != nil {
		appendSet("brand", *input.Brand)
	}
	if input.Model != nil {
		appendSet("model", *input.Model)
	}
	if input.Brand != nil || input.Model != nil {
		// Re-derive the slug when either naming half changes.
		var brand, model string
		err := h.DB.QueryRow("SELECT brand, model FROM mobiles WHERE id = ?", mobileID).Scan(&brand, &model)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(c, http.StatusNotFound, "Mobile not found")
				return
			}
			respondError(c, http.StatusInternalServerError, "Failed to fetch mobile")
			return
		}
		if input.Brand != nil {
			brand = *input.Brand
		}
		if input.Model != nil {
			model = *input.Model
		}
		appendSet("slug", slug.Make(brand+" "+model))
	}
	if input.Price != nil {
		appendSet("price", *input.Price)
	}
	if input.Stock != nil {
		appendSet("stock", *input.Stock)
	}
	if input.Specifications != nil {
		appendSet("ram", input.Specifications.RAM)
		appendSet("storage", input.Specifications.Storage)
		appendSet("camera", input.Specifications.Camera)
		appendSet("battery", input.Specifications.Battery)
		appendSet("display", input.Specifications.Display)
		appendSet("processor", input.Specifications.Processor)
	}
	if input.ImageURL != nil {
		appendSet("image_url", *input.ImageURL)
	}
	if input.Description != nil {
		appendSet("description", *input.Description)
	}
	if input.IsAvailable != nil {
		appendSet("is_available", *input.IsAvailable)
	}

	if len(setClauses) == 0 {
		respondError(c, http.StatusBadRequest, "No fields to update")
		return
	}

	appendSet("updated_at", time.Now())
	args = append(args, mobileID)

	query := "UPDATE mobiles SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	result, err := h.DB.Exec(query, args...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update mobile")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		var one int
		if err := h.DB.QueryRow("SELECT 1 FROM mobiles WHERE id = ?", mobileID).Scan(&one); err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Mobile not found")
			return
		}
	}

	h.respondWithMobile(c, mobileID, "Mobile updated successfully")
}

// DeleteMobile is the handler for DELETE /api/admin/mobiles/delete/:id
func (h *Handlers) DeleteMobile(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM mobiles WHERE id = ?", c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete mobile")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondError(c, http.StatusNotFound, "Mobile not found")
		return
	}

	respondMessage(c, http.StatusOK, "Mobile deleted successfully", nil)
}

// UpdateStockInput defines the JSON for PATCH /api/admin/mobiles/stock/:id.
type UpdateStockInput struct {
	Stock *int `json:"stock" binding:"required,gte=0"`
}

// UpdateStock is the handler for PATCH /api/admin/mobiles/stock/:id
// Sets the absolute stock count. Checkout is the only path that
// applies deltas.
func (h *Handlers) UpdateStock(c *gin.Context) {
	mobileID := c.Param("id")

	var input UpdateStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Stock value is required")
		return
	}

	result, err := h.DB.Exec(
		"UPDATE mobiles SET stock = ?, updated_at = ? WHERE id = ?",
		*input.Stock, time.Now(), mobileID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update stock")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		var one int
		if err := h.DB.QueryRow("SELECT 1 FROM mobiles WHERE id = ?", mobileID).Scan(&one); err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Mobile not found")
			return
		}
	}

	h.respondWithMobile(c, mobileID, "Stock updated successfully")
}

// UpdateAvailabilityInput defines the JSON for PATCH /api/admin/mobiles/availability/:id.
type UpdateAvailabilityInput struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}

// UpdateAvailability is the handler for PATCH /api/admin/mobiles/availability/:id
func (h *Handlers) UpdateAvailability(c *gin.Context) {
	mobileID := c.Param("id")

	var input UpdateAvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "isAvailable value is required")
		return
	}

	result, err := h.DB.Exec(
		"UPDATE mobiles SET is_available = ?, updated_at = ? WHERE id = ?",
		*input.IsAvailable, time.Now(), mobileID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update availability")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		var one int
		if err := h.DB.QueryRow("SELECT 1 FROM mobiles WHERE id = ?", mobileID).Scan(&one); err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Mobile not found")
			return
		}
	}

	h.respondWithMobile(c, mobileID, "Availability updated successfully")
}

// respondWithMobile re-reads a mobile and sends it back with a message.
func (h *Handlers) respondWithMobile(c *gin.Context, mobileID, message string) {
	row := h.DB.QueryRow("SELECT "+mobileColumns+" FROM mobiles WHERE id = ?", mobileID)
	m, err := scanMobile(row)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch mobile")
		return
	}
	respondMessage(c, http.StatusOK, message, m)
}
