package notify

import (
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"

	"velora_back_end/internal/models"
)

// Sender est le collaborateur de notification injecté dans le service
// commandes. Les échecs d'envoi sont loggés côté appelant, jamais propagés
// jusqu'au client : une commande créée reste créée même si l'email tombe.
type Sender interface {
	OrderCreated(order models.Order, email string) error
	OrderStatusChanged(order models.Order, email string) error
	ContactMessage(msg models.ContactMessage) error
}

// Mailer envoie les emails transactionnels via SMTP (OVH en production).
// Construit une fois au démarrage puis passé par référence.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailerFromEnv() *Mailer {
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@velora-shop.com"
	}
	return &Mailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     from,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// OrderCreated envoie la confirmation de commande
func (m *Mailer) OrderCreated(order models.Order, email string) error {
	subject := "🛒 Confirmation de votre commande " + order.OrderRef + " - Velora"
	return m.send(email, subject, orderConfirmationHTML(order))
}

// OrderStatusChanged notifie un changement de statut
func (m *Mailer) OrderStatusChanged(order models.Order, email string) error {
	return m.send(email, statusEmailSubject(order.Status), orderStatusHTML(order))
}

// ContactMessage relaie un message du formulaire de contact vers le support
func (m *Mailer) ContactMessage(msg models.ContactMessage) error {
	support := os.Getenv("SUPPORT_EMAIL")
	if support == "" {
		support = "support@velora-shop.com"
	}
	subject := "📨 Nouveau message de contact: " + msg.Subject
	return m.send(support, subject, contactMessageHTML(msg))
}
