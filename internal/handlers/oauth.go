package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// GET /api/auth/:provider
func OAuthBegin(c *gin.Context) {
	provider := c.Param("provider")

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /api/auth/:provider/callback
func OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ Erreur OAuth %s: %v", provider, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification échouée"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	user, err := findUserByEmail(ctx, session, gothUser.Email, provider)
	if err != nil {
		if !errors.Is(err, gocql.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification compte"})
			return
		}

		// Première connexion via ce provider : création du compte
		name := gothUser.Name
		if name == "" {
			name = gothUser.NickName
		}
		created := models.User{
			ID:        uuid.NewString(),
			Email:     gothUser.Email,
			Name:      name,
			Role:      "customer",
			Provider:  provider,
			CreatedAt: time.Now(),
		}
		if err := insertUser(ctx, session, created); err != nil {
			log.Println("❌ Erreur création utilisateur OAuth:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
			return
		}
		user = &created
		log.Printf("✅ Nouvel utilisateur %s via %s", user.Email, provider)
	}

	token, err := utils.GenerateJWT(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}
	c.Redirect(http.StatusTemporaryRedirect,
		fmt.Sprintf("%s/auth/callback?token=%s", frontend, url.QueryEscape(token)))
}

// GET /api/auth/logout
func OAuthLogout(c *gin.Context) {
	gothic.Logout(c.Writer, c.Request)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}
