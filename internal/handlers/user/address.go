package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// GET /api/addresses
func GetAddresses(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT address_id, full_name, street, city, postal_code, country, phone, is_default
		FROM addresses WHERE user_id = ?`, userID).Iter()

	var addresses []models.Address
	var a models.Address
	a.UserID = userID
	for iter.Scan(&a.ID, &a.FullName, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.Phone, &a.IsDefault) {
		addresses = append(addresses, a)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture adresses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// POST /api/addresses
func CreateAddress(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		FullName   string `json:"full_name" binding:"required"`
		Street     string `json:"street" binding:"required"`
		City       string `json:"city" binding:"required"`
		PostalCode string `json:"postal_code" binding:"required"`
		Country    string `json:"country" binding:"required"`
		Phone      string `json:"phone"`
		IsDefault  bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	addr := models.Address{
		ID:         gocql.TimeUUID(),
		UserID:     userID,
		FullName:   input.FullName,
		Street:     input.Street,
		City:       input.City,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		Phone:      input.Phone,
		IsDefault:  input.IsDefault,
	}

	if err := session.Query(`INSERT INTO addresses
		(user_id, address_id, full_name, street, city, postal_code, country, phone, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		addr.UserID, addr.ID, addr.FullName, addr.Street, addr.City,
		addr.PostalCode, addr.Country, addr.Phone, addr.IsDefault).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création adresse"})
		return
	}

	c.JSON(http.StatusCreated, addr)
}

// PUT /api/addresses/:id
func UpdateAddress(c *gin.Context) {
	userID := c.GetString("user_id")

	addressID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
		return
	}

	var input struct {
		FullName   string `json:"full_name" binding:"required"`
		Street     string `json:"street" binding:"required"`
		City       string `json:"city" binding:"required"`
		PostalCode string `json:"postal_code" binding:"required"`
		Country    string `json:"country" binding:"required"`
		Phone      string `json:"phone"`
		IsDefault  bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// La partition est user_id : impossible de toucher l'adresse d'un autre
	if err := session.Query(`UPDATE addresses SET full_name = ?, street = ?, city = ?,
		postal_code = ?, country = ?, phone = ?, is_default = ?
		WHERE user_id = ? AND address_id = ?`,
		input.FullName, input.Street, input.City, input.PostalCode, input.Country,
		input.Phone, input.IsDefault, userID, gocql.UUID(addressID)).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour adresse"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Adresse mise à jour"})
}

// DELETE /api/addresses/:id
func DeleteAddress(c *gin.Context) {
	userID := c.GetString("user_id")

	addressID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(`DELETE FROM addresses WHERE user_id = ? AND address_id = ?`,
		userID, gocql.UUID(addressID)).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression adresse"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Adresse supprimée"})
}

// getUserAddress relit une adresse pour la figer dans une commande
func getUserAddress(c *gin.Context, userID string, addressID gocql.UUID) (*models.Address, bool) {
	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return nil, false
	}

	var a models.Address
	a.ID = addressID
	a.UserID = userID
	err = session.Query(`SELECT full_name, street, city, postal_code, country, phone, is_default
		FROM addresses WHERE user_id = ? AND address_id = ?`, userID, addressID).Scan(
		&a.FullName, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.Phone, &a.IsDefault)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Adresse introuvable ou non autorisée"})
		return nil, false
	}
	return &a, true
}
