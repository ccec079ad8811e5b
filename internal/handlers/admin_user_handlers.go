package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Admin User Handlers ---
//

const userColumns = "id, name, email, role, phone, created_at, updated_at"

func scanUser(scanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AdminGetUsers is the handler for GET /api/admin/users
func (h *Handlers) AdminGetUsers(c *gin.Context) {
	query := "SELECT " + userColumns + " FROM users"
	args := []interface{}{}

	if role := c.Query("role"); role != "" {
		query += " WHERE role = ?"
		args = append(args, role)
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan user")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		respondError(c, http.StatusInternalServerError, "Error iterating users")
		return
	}

	respondData(c, http.StatusOK, users)
}

// AdminGetUser is the handler for GET /api/admin/users/:id
func (h *Handlers) AdminGetUser(c *gin.Context) {
	row := h.DB.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", c.Param("id"))
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	respondData(c, http.StatusOK, u)
}

// AdminUpdateUserInput defines the JSON for PUT /api/admin/users/update/:id.
// There is deliberately no password field: this route can never change
// a credential.
type AdminUpdateUserInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=customer admin"`
	Phone *string `json:"phone"`
}

// AdminUpdateUser is the handler for PUT /api/admin/users/update/:id
func (h *Handlers) AdminUpdateUser(c *gin.Context) {
	userID := c.Param("id")

	var input AdminUpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	setClauses := []string{}
	args := []interface{}{}

	if input.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *input.Name)
	}
	if input.Email != nil {
		setClauses = append(setClauses, "email = ?")
		args = append(args, *input.Email)
	}
	if input.Role != nil {
		setClauses = append(setClauses, "role = ?")
		args = append(args, *input.Role)
	}
	if input.Phone != nil {
		setClauses = append(setClauses, "phone = ?")
		args = append(args, *input.Phone)
	}

	if len(setClauses) == 0 {
		respondError(c, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now(), userID)

	result, err := h.DB.Exec(
		"UPDATE users SET "+strings.Join(setClauses, ", ")+" WHERE id = ?", args...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		var one int
		if err := h.DB.QueryRow("SELECT 1 FROM users WHERE id = ?", userID).Scan(&one); err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
	}

	row := h.DB.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	u, err := scanUser(row)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	respondMessage(c, http.StatusOK, "User updated successfully", u)
}

// AdminDeleteUser is the handler for DELETE /api/admin/users/delete/:id
func (h *Handlers) AdminDeleteUser(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM users WHERE id = ?", c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	respondMessage(c, http.StatusOK, "User deleted successfully", nil)
}

// RoleStat is one row of the role breakdown.
type RoleStat struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// GetUserStats is the handler for GET /api/admin/users/stats/overview
func (h *Handlers) GetUserStats(c *gin.Context) {
	var totalUsers int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&totalUsers); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count users")
		return
	}

	rows, err := h.DB.Query("SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch user stats")
		return
	}
	defer rows.Close()

	breakdown := []RoleStat{}
	for rows.Next() {
		var s RoleStat
		if err := rows.Scan(&s.Role, &s.Count); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan user stats")
			return
		}
		breakdown = append(breakdown, s)
	}

	respondData(c, http.StatusOK, gin.H{
		"totalUsers":    totalUsers,
		"roleBreakdown": breakdown,
	})
}
