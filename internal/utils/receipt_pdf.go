package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"cmcafe_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GeneratePickupQR encode le numéro de commande en QR, prêt pour un
// <img src="...">. Le comptoir le scanne à la remise de la commande.
func GeneratePickupQR(orderNumber string) (string, error) {
	png, err := qrcode.Encode(orderNumber, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateReceiptPDF imprime le reçu HTML en PDF via Chrome headless.
func GenerateReceiptPDF(order models.Order) ([]byte, error) {
	qr, err := GeneratePickupQR(order.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %v", err)
	}

	html := GenerateOrderConfirmationHTML(order) + fmt.Sprintf(`
<div style="text-align: center; margin-top: 20px;">
	<p>Présentez ce code au comptoir :</p>
	<img src="%s" alt="%s" width="200" height="200">
</div>`, qr, order.OrderNumber)

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
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

// OrderMailer envoie la confirmation après un commit, hors du chemin
// critique du checkout.
type OrderMailer struct{}

func (OrderMailer) OrderConfirmed(order models.Order, email string) {
	html := GenerateOrderConfirmationHTML(order)

	pdf, err := GenerateReceiptPDF(order)
	if err != nil {
		log.Println("❌ Erreur génération PDF :", err)
		pdf = nil
	}

	if err := SendConfirmationEmail(email,
		"Confirmation de votre commande Coimbatore Cafe", html, pdf); err != nil {
		log.Println("❌ Erreur envoi e-mail confirmation :", err)
		return
	}
	log.Println("📧 E-mail de confirmation envoyé à", email)
}
