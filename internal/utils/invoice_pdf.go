package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"

	"velora_back_end/internal/models"
)

// GenerateOrderQR génère le QR de suivi d'une commande en base64, prêt à
// mettre dans <img src="...">
func GenerateOrderQR(trackingURL string) (string, error) {
	png, err := qrcode.Encode(trackingURL, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateOrderQRPNG retourne le QR de suivi brut (PNG), pour l'endpoint image
func GenerateOrderQRPNG(trackingURL string) ([]byte, error) {
	return qrcode.Encode(trackingURL, qrcode.Medium, 256)
}

// RenderInvoicePDF construit la facture HTML d'une commande et l'imprime en
// PDF via Chrome headless
func RenderInvoicePDF(order models.Order, qrBase64 string) ([]byte, error) {
	html := invoiceHTML(order, qrBase64)
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}

func invoiceHTML(order models.Order, qrBase64 string) string {
	var rows strings.Builder
	for _, item := range order.Items {
		rows.WriteString(fmt.Sprintf(`<tr>
			<td>%s</td>
			<td style="text-align:center">%d</td>
			<td style="text-align:right">%.2f €</td>
			<td style="text-align:right">%.2f €</td>
		</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity)))
	}

	qrBlock := ""
	if qrBase64 != "" {
		qrBlock = fmt.Sprintf(`<img src="%s" width="120" height="120" alt="QR de suivi"/>`, qrBase64)
	}

	discountRow := ""
	if order.Discount > 0 {
		discountRow = fmt.Sprintf(`<tr><td>Remise</td><td style="text-align:right">-%.2f €</td></tr>`, order.Discount)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8"/>
<style>
	body { font-family: Arial, sans-serif; color: #1a1a2e; margin: 40px; }
	h1 { color: #6c3fb5; }
	table { width: 100%%; border-collapse: collapse; margin-top: 20px; }
	th, td { padding: 8px 12px; border-bottom: 1px solid #ddd; }
	th { background: #f4f0fa; text-align: left; }
	.totals { width: 300px; margin-left: auto; margin-top: 20px; }
	.totals td { border: none; }
	.header { display: flex; justify-content: space-between; align-items: flex-start; }
</style>
</head>
<body>
	<div class="header">
		<div>
			<h1>Velora</h1>
			<p>Facture — Commande %s<br/>Date : %s</p>
		</div>
		%s
	</div>
	<p><strong>%s</strong><br/>%s<br/>%s %s<br/>%s</p>
	<table>
		<thead><tr><th>Article</th><th>Qté</th><th>Prix unitaire</th><th>Total</th></tr></thead>
		<tbody>%s</tbody>
	</table>
	<table class="totals">
		<tr><td>Sous-total</td><td style="text-align:right">%.2f €</td></tr>
		<tr><td>Livraison</td><td style="text-align:right">%.2f €</td></tr>
		<tr><td>TVA</td><td style="text-align:right">%.2f €</td></tr>
		%s
		<tr><td><strong>Total</strong></td><td style="text-align:right"><strong>%.2f €</strong></td></tr>
	</table>
</body>
</html>`,
		order.OrderRef, order.CreatedAt.Format("02/01/2006"), qrBlock,
		order.ShippingAddress.FullName, order.ShippingAddress.Street,
		order.ShippingAddress.PostalCode, order.ShippingAddress.City,
		order.ShippingAddress.Country, rows.String(),
		order.Subtotal, order.ShippingFee, order.Tax, discountRow, order.TotalPrice)
}
