package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Mobile Catalog Handlers (Customer-Facing) ---
//

// sortColumns whitelists the fields a client may sort the catalog by.
var sortColumns = map[string]string{
	"price":     "price",
	"brand":     "brand",
	"model":     "model",
	"createdAt": "created_at",
}

const mobileColumns = `
	id, brand, model, slug, price, stock,
	ram, storage, camera, battery, display, processor,
	image_url, description, is_available, created_at, updated_at`

// scanMobile reads one mobiles row into a models.Mobile.
func scanMobile(scanner interface{ Scan(...interface{}) error }) (*models.Mobile, error) {
	var m models.Mobile
	var slug, ram, storage, camera, battery, display, processor, imageURL, description sql.NullString

	err := scanner.Scan(
		&m.ID, &m.Brand, &m.Model, &slug, &m.Price, &m.Stock,
		&ram, &storage, &camera, &battery, &display, &processor,
		&imageURL, &description, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Slug = slug.String
	m.ImageURL = imageURL.String
	m.Description = description.String
	m.Specifications = models.Specifications{
		RAM:       ram.String,
		Storage:   storage.String,
		Camera:    camera.String,
		Battery:   battery.String,
		Display:   display.String,
		Processor: processor.String,
	}
	return &m, nil
}

// GetMobiles is the handler for GET /api/mobiles
// Supports brand/price/search filtering, whitelisted sorting and
// pagination. Only available mobiles are listed here; the admin
// listing has no such filter.
func (h *Handlers) GetMobiles(c *gin.Context) {
	page, limit := parsePagination(c)

	var where strings.Builder
	var args []interface{}

	where.WriteString(" WHERE is_available = TRUE")

	if brand := c.Query("brand"); brand != "" {
		where.WriteString(" AND brand LIKE ?")
		args = append(args, "%"+brand+"%")
	}
	if minPrice := c.Query("minPrice"); minPrice != "" {
		where.WriteString(" AND price >= ?")
		args = append(args, minPrice)
	}
	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		where.WriteString(" AND price <= ?")
		args = append(args, maxPrice)
	}
	if search := c.Query("search"); search != "" {
		where.WriteString(" AND (brand LIKE ? OR model LIKE ? OR description LIKE ?)")
		term := "%" + search + "%"
		args = append(args, term, term, term)
	}

	// Sorting (whitelisted column, default newest first).
	sortCol, ok := sortColumns[c.DefaultQuery("sort", "createdAt")]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if c.DefaultQuery("order", "desc") == "asc" {
		direction = "ASC"
	}

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM mobiles"+where.String(), args...).Scan(&total); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count mobiles")
		return
	}

	query := "SELECT " + mobileColumns + " FROM mobiles" + where.String() +
		" ORDER BY " + sortCol + " " + direction + " LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	rows, err := h.DB.Query(query, args...)
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

// GetMobile is the handler for GET /api/mobiles/:id
func (h *Handlers) GetMobile(c *gin.Context) {
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

// GetBrands is the handler for GET /api/mobiles/filters/brands
// Returns the distinct brands of available mobiles for filter UIs.
func (h *Handlers) GetBrands(c *gin.Context) {
	rows, err := h.DB.Query("SELECT DISTINCT brand FROM mobiles WHERE is_available = TRUE ORDER BY brand")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch brands")
		return
	}
	defer rows.Close()

	brands := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan brand")
			return
		}
		brands = append(brands, b)
	}

	respondData(c, http.StatusOK, brands)
}
