package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// findUserByEmail passe par la table users_by_email (pas de filtrage côté Scylla)
func findUserByEmail(ctx context.Context, session *gocql.Session, email, provider string) (*models.User, error) {
	var userID string
	err := session.Query(`SELECT user_id FROM users_by_email WHERE email = ? AND provider = ?`,
		email, provider).WithContext(ctx).Scan(&userID)
	if err != nil {
		return nil, err
	}

	var u models.User
	u.ID = userID
	err = session.Query(`SELECT email, name, password, role, provider, created_at
		FROM users WHERE user_id = ?`, userID).WithContext(ctx).Scan(
		&u.Email, &u.Name, &u.Password, &u.Role, &u.Provider, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func insertUser(ctx context.Context, session *gocql.Session, u models.User) error {
	if err := session.Query(`INSERT INTO users (user_id, email, name, password, role, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Password, u.Role, u.Provider, u.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}
	return session.Query(`INSERT INTO users_by_email (email, provider, user_id)
		VALUES (?, ?, ?)`, u.Email, u.Provider, u.ID).WithContext(ctx).Exec()
}

// POST /api/auth/register
func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if _, err := findUserByEmail(ctx, session, input.Email, "local"); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	} else if !errors.Is(err, gocql.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification email"})
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     input.Email,
		Name:      input.Name,
		Password:  hashed,
		Role:      "customer",
		Provider:  "local",
		CreatedAt: time.Now(),
	}

	if err := insertUser(ctx, session, user); err != nil {
		log.Println("❌ Erreur création utilisateur:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	log.Printf("✅ Nouvel utilisateur: %s", user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"token":  token,
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
	})
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	user, err := findUserByEmail(ctx, session, input.Email, "local")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
	})
}

// PUT /api/auth/me
func UpdateMe(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Name     *string `json:"name"`
		Password *string `json:"password" binding:"omitempty,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == nil && input.Password == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun champ à mettre à jour"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if input.Name != nil {
		if err := session.Query(`UPDATE users SET name = ? WHERE user_id = ?`,
			*input.Name, userID).WithContext(ctx).Exec(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour profil"})
			return
		}
	}

	if input.Password != nil {
		var provider string
		if err := session.Query(`SELECT provider FROM users WHERE user_id = ?`, userID).
			WithContext(ctx).Scan(&provider); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
			return
		}
		// Les comptes OAuth n'ont pas de mot de passe local
		if provider != "local" {
			c.JSON(http.StatusConflict, gin.H{"error": "Ce compte utilise une connexion " + provider})
			return
		}
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour profil"})
			return
		}
		if err := session.Query(`UPDATE users SET password = ? WHERE user_id = ?`,
			hashed, userID).WithContext(ctx).Exec(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour profil"})
			return
		}
	}

	log.Printf("✅ Profil mis à jour pour %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour"})
}

// GET /api/auth/me
func Me(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var u models.User
	u.ID = userID
	err = session.Query(`SELECT email, name, role, provider, created_at
		FROM users WHERE user_id = ?`, userID).Scan(
		&u.Email, &u.Name, &u.Role, &u.Provider, &u.CreatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, u)
}
