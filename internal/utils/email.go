package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"cmcafe_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@coimbatorecafe.in"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("recu_commande.pdf", bytes.NewReader(pdfAttachment))
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.zoho.in"
	}

	client, err := mail.NewClient(host,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 8px; border: 1px solid #ddd;">%s%s</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 8px; border: 1px solid #ddd;">₹%.2f</td>
				<td style="padding: 8px; border: 1px solid #ddd;">₹%.2f</td>
			</tr>`,
			item.Name, customizationSummary(item.Customizations),
			item.Quantity, paise(item.UnitPrice), paise(item.TotalPrice))
	}

	discountRow := ""
	if order.Discount > 0 {
		discountRow = fmt.Sprintf(`
				<tr>
					<td colspan="3" style="padding: 8px; text-align: right;">Remise (%s):</td>
					<td style="padding: 8px;">-₹%.2f</td>
				</tr>`, order.PromoCode, paise(order.Discount))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f5f0; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #4a2c17;">Votre commande %s est confirmée</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande — nous la préparons déjà.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0e6d8;">
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Article</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Qté</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 8px; text-align: right;">Sous-total:</td>
					<td style="padding: 8px;">₹%.2f</td>
				</tr>%s
				<tr>
					<td colspan="3" style="padding: 8px; text-align: right;">Livraison:</td>
					<td style="padding: 8px;">₹%.2f</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 8px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 8px; font-weight: bold;">₹%.2f</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			À très vite,<br>
			<strong>L'équipe Coimbatore Cafe</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, itemsHTML, paise(order.Subtotal), discountRow,
		paise(order.DeliveryFee), paise(order.TotalAmount))
}

func customizationSummary(c models.Customizations) string {
	var parts []string
	if c.Size != "" {
		parts = append(parts, string(c.Size))
	}
	if c.Milk != "" {
		parts = append(parts, "lait "+string(c.Milk))
	}
	parts = append(parts, c.Extras...)
	if len(parts) == 0 {
		return ""
	}
	out := " <small>("
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + ")</small>"
}

func paise(amount int64) float64 {
	return float64(amount) / 100
}
