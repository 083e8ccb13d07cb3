package email

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ketowell/ketowell-backend/internal/models"
)

var currencySymbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"cad": "CA$",
	"aud": "A$",
}

// FormatAmount renders a minor-currency-unit amount as a two-decimal display
// price, e.g. (1999, "usd") -> "$19.99".
func FormatAmount(amount int64, currency string) string {
	currency = strings.ToLower(currency)
	symbol, ok := currencySymbols[currency]
	if !ok {
		return fmt.Sprintf("%.2f %s", float64(amount)/100, strings.ToUpper(currency))
	}
	return fmt.Sprintf("%s%.2f", symbol, float64(amount)/100)
}

var purchaseTmpl = template.Must(template.New("purchase").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1a1a1a;">
  <h2>Thanks for your purchase{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Your payment of <strong>{{.Price}}</strong> has been confirmed.</p>
  <p><a href="{{.DownloadLink}}" style="display:inline-block;padding:12px 24px;background:#16a34a;color:#fff;border-radius:8px;text-decoration:none;">Download the KetoWell Guide</a></p>
  <p>The link works for up to {{.DownloadLimit}} downloads. Keep this email as your receipt.</p>
  <p style="color:#6b7280;font-size:13px;">Order reference: {{.PaymentIntentID}}<br>
  Need help? Write to <a href="mailto:{{.Support}}">{{.Support}}</a>.</p>
</body>
</html>`))

var waitlistTmpl = template.Must(template.New("waitlist").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1a1a1a;">
  <h2>Confirm your spot on the KetoWell waitlist</h2>
  <p>Tap the button below to confirm your email address.</p>
  <p><a href="{{.ConfirmLink}}" style="display:inline-block;padding:12px 24px;background:#16a34a;color:#fff;border-radius:8px;text-decoration:none;">Confirm email</a></p>
  <p style="color:#6b7280;font-size:13px;">If you didn't sign up, you can ignore this email.</p>
</body>
</html>`))

// PurchaseConfirmation renders the post-purchase email carrying the
// entitlement link.
func PurchaseConfirmation(p *models.Purchase, downloadLink, supportEmail string, downloadLimit int) (Message, error) {
	var b strings.Builder
	err := purchaseTmpl.Execute(&b, map[string]any{
		"Name":            p.CustomerName,
		"Price":           FormatAmount(p.AmountPaid, p.Currency),
		"DownloadLink":    downloadLink,
		"DownloadLimit":   downloadLimit,
		"PaymentIntentID": p.PaymentIntentID,
		"Support":         supportEmail,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render purchase email: %w", err)
	}
	return Message{
		To:      p.CustomerEmail,
		Subject: "Your KetoWell Guide is ready",
		HTML:    b.String(),
	}, nil
}

// WaitlistConfirmation renders the double-opt-in email.
func WaitlistConfirmation(to, confirmLink string) (Message, error) {
	var b strings.Builder
	if err := waitlistTmpl.Execute(&b, map[string]any{"ConfirmLink": confirmLink}); err != nil {
		return Message{}, fmt.Errorf("failed to render waitlist email: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Confirm your KetoWell waitlist signup",
		HTML:    b.String(),
	}, nil
}
