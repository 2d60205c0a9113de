// Package notification sends the order-confirmation email. The checkout
// flow fires it and moves on: delivery failure is logged, never surfaced.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackgym/storefront/internal/currency"
	"github.com/blackgym/storefront/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// LineDetail is one purchased product as it appears in the email body.
type LineDetail struct {
	ProductID int64
	Name      string
	UnitPrice float64
	Quantity  int
}

type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, orden *models.Orden, form models.CheckoutForm, lines []LineDetail, recipient string) error
}

type sendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) OrderMailer {
	return &sendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func formatLines(lines []LineDetail) string {
	if len(lines) == 0 {
		return "No products in this order."
	}

	parts := make([]string, 0, len(lines))

	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("• %s - Cantidad: %d - %s c/u",
			line.Name, line.Quantity, currency.FormatGTQ(line.UnitPrice)))
	}

	return strings.Join(parts, "\n")
}

func buildBody(orden *models.Orden, form models.CheckoutForm, lines []LineDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hola %s!\n\n", orden.Cliente)
	b.WriteString("Gracias por tu compra en BLACK GYM. Tu orden ha sido procesada exitosamente.\n\n")
	fmt.Fprintf(&b, "Orden: #%d\n", orden.ID)
	fmt.Fprintf(&b, "Fecha: %s\n", orden.Fecha)
	fmt.Fprintf(&b, "Envio: %s, %s, %s\n\n", form.Address, form.City, form.Region)
	b.WriteString("Productos:\n")
	b.WriteString(formatLines(lines))
	fmt.Fprintf(&b, "\n\nTotal: %s\n\n", currency.FormatGTQ(orden.Total))
	b.WriteString("Si tienes preguntas, contáctanos:\n")
	b.WriteString("• Email: info@blackgym.com\n")
	b.WriteString("• Teléfono: +502 2234-5678\n\n")
	b.WriteString("¡Gracias por elegir BLACK GYM!")

	return b.String()
}

// SendOrderConfirmation delivers the confirmation message. Callers must not
// block a checkout transition on its result.
func (m *sendGridMailer) SendOrderConfirmation(ctx context.Context, orden *models.Orden, form models.CheckoutForm, lines []LineDetail, recipient string) error {

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(form.Name, recipient)

	message := mail.NewV3Mail()
	message.SetFrom(from)

	personalization := mail.NewPersonalization()
	personalization.AddTos(to)
	personalization.Subject = fmt.Sprintf("BLACK GYM - Confirmación de orden #%d", orden.ID)
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", buildBody(orden, form, lines)))

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}
