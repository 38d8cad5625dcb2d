package notify

import (
	"fmt"
	"strings"

	"velora_back_end/internal/models"
)

func statusEmailSubject(status models.OrderStatus) string {
	switch status {
	case models.OrderConfirmed:
		return "✅ Commande confirmée - Velora"
	case models.OrderPreparing:
		return "📋 Votre commande est en préparation - Velora"
	case models.OrderShipped:
		return "📦 Votre commande a été expédiée - Velora"
	case models.OrderDelivered:
		return "🎉 Votre commande a été livrée - Velora"
	case models.OrderCancelled:
		return "❌ Commande annulée - Velora"
	case models.OrderRefunded:
		return "💰 Remboursement effectué - Velora"
	default:
		return "📋 Mise à jour de votre commande - Velora"
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.OrderConfirmed:
		return "Votre paiement a été confirmé avec succès. Nous préparons votre commande."
	case models.OrderPreparing:
		return "Votre commande est en cours de préparation dans notre entrepôt."
	case models.OrderShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous."
	case models.OrderDelivered:
		return "Votre commande a été livrée avec succès. Nous espérons que vous en êtes satisfait !"
	case models.OrderCancelled:
		return "Votre commande a été annulée. Le stock a été libéré et aucun montant ne sera prélevé."
	case models.OrderRefunded:
		return "Votre remboursement a été traité. Les fonds seront crédités sous 5-10 jours ouvrés."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func orderItemsRowsHTML(items []models.OrderItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity)))
	}
	return b.String()
}

// orderConfirmationHTML génère l'email de confirmation de commande
func orderConfirmationHTML(order models.Order) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Merci pour votre commande !</h2>
		<p>Bonjour,</p>
		<p>Votre commande <strong>%s</strong> a bien été enregistrée.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>

		<table style="width: 100%%; margin: 20px 0;">
			<tr><td style="color: #666;">Sous-total</td><td style="text-align: right;">%.2f€</td></tr>
			<tr><td style="color: #666;">Livraison</td><td style="text-align: right;">%.2f€</td></tr>
			<tr><td style="color: #666;">TVA</td><td style="text-align: right;">%.2f€</td></tr>
			<tr><td style="color: #666;">Remise</td><td style="text-align: right;">-%.2f€</td></tr>
			<tr><td style="font-weight: bold;">Total</td><td style="text-align: right; font-weight: bold;">%.2f€</td></tr>
		</table>

		<p style="color: #666; font-size: 13px;">Vous recevrez un email à chaque étape de la préparation et de la livraison.</p>
		<p style="color: #999; font-size: 12px;">© Velora - Cet email a été envoyé automatiquement, merci de ne pas y répondre.</p>
	</div>
</body>
</html>`,
		order.OrderRef, orderItemsRowsHTML(order.Items),
		order.Subtotal, order.ShippingFee, order.Tax, order.Discount, order.TotalPrice)
}

// orderStatusHTML génère l'email de changement de statut
func orderStatusHTML(order models.Order) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Mise à jour de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Mise à jour de votre commande</h2>
		<p>%s</p>

		<table style="width: 100%%; background-color: #f8f9fa; border-radius: 8px; margin: 20px 0;">
			<tr>
				<td style="padding: 8px 16px; color: #666;">Numéro de commande</td>
				<td style="padding: 8px 16px; text-align: right;">%s</td>
			</tr>
			<tr>
				<td style="padding: 8px 16px; color: #666;">Montant total</td>
				<td style="padding: 8px 16px; text-align: right; font-weight: 600;">%.2f€</td>
			</tr>
			<tr>
				<td style="padding: 8px 16px; color: #666;">Statut</td>
				<td style="padding: 8px 16px; text-align: right; font-weight: 600;">%s</td>
			</tr>
		</table>

		<p style="color: #666; font-size: 14px;">Vous avez des questions ? Notre équipe support est disponible 7j/7.</p>
		<p style="color: #999; font-size: 12px;">© Velora - Cet email a été envoyé automatiquement, merci de ne pas y répondre.</p>
	</div>
</body>
</html>`, statusMessage(order.Status), order.OrderRef, order.TotalPrice, order.Status)
}

// contactMessageHTML met en forme un message du formulaire de contact
func contactMessageHTML(msg models.ContactMessage) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<h2>Nouveau message de contact</h2>
	<p><strong>De:</strong> %s (%s)</p>
	<p><strong>Sujet:</strong> %s</p>
	<hr>
	<p>%s</p>
</body>
</html>`, msg.Name, msg.Email, msg.Subject, msg.Message)
}
