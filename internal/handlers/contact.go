package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/notify"
)

var contactNotifier notify.Sender

// InitContactHandlers branche le mailer utilisé pour relayer les messages
func InitContactHandlers(sender notify.Sender) {
	contactNotifier = sender
}

// POST /api/contact
func SubmitContactMessage(c *gin.Context) {
	var input struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Subject string `json:"subject" binding:"required"`
		Message string `json:"message" binding:"required,min=10"`
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

	msg := models.ContactMessage{
		ID:        gocql.TimeUUID(),
		Name:      input.Name,
		Email:     input.Email,
		Subject:   input.Subject,
		Message:   input.Message,
		CreatedAt: time.Now(),
	}

	if err := session.Query(`INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message, msg.CreatedAt).Exec(); err != nil {
		log.Println("❌ Erreur enregistrement message contact:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement du message"})
		return
	}

	// Relais vers le support, best-effort
	if contactNotifier != nil {
		go func(m models.ContactMessage) {
			if err := contactNotifier.ContactMessage(m); err != nil {
				log.Printf("⚠️ Erreur relais message contact %s: %v", m.ID, err)
			}
		}(msg)
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message envoyé, nous revenons vers vous rapidement"})
}

// GET /api/admin/contact-messages
func ListContactMessages(c *gin.Context) {
	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT id, name, email, subject, message, created_at FROM contact_messages`).Iter()

	var messages []models.ContactMessage
	var m models.ContactMessage
	for iter.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt) {
		messages = append(messages, m)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}
