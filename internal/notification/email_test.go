package notification

import (
	"testing"

	"github.com/blackgym/storefront/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatLines(t *testing.T) {
	t.Run("Success - One Line Per Product", func(t *testing.T) {
		// Arrange
		lines := []LineDetail{
			{ProductID: 1, Name: "Mancuernas 10kg", UnitPrice: 250.00, Quantity: 2},
			{ProductID: 2, Name: "Banca Plana", UnitPrice: 899.99, Quantity: 1},
		}

		// Act
		got := formatLines(lines)

		// Assert
		assert.Equal(t,
			"• Mancuernas 10kg - Cantidad: 2 - Q250.00 c/u\n• Banca Plana - Cantidad: 1 - Q899.99 c/u",
			got)
	})

	t.Run("Success - Empty Order", func(t *testing.T) {
		assert.Equal(t, "No products in this order.", formatLines(nil))
	})
}

func TestBuildBody(t *testing.T) {
	// Arrange
	orden := &models.Orden{ID: 42, Cliente: "Juan Perez", Total: 1149.99, Fecha: "2026-08-29"}
	form := models.CheckoutForm{
		Name:    "Juan Perez",
		Address: "4a Avenida 12-34",
		City:    "Guatemala",
		Region:  "Guatemala",
	}
	lines := []LineDetail{
		{ProductID: 1, Name: "Mancuernas 10kg", UnitPrice: 250.00, Quantity: 1},
	}

	// Act
	body := buildBody(orden, form, lines)

	// Assert
	assert.Contains(t, body, "Hola Juan Perez!")
	assert.Contains(t, body, "Orden: #42")
	assert.Contains(t, body, "Fecha: 2026-08-29")
	assert.Contains(t, body, "Envio: 4a Avenida 12-34, Guatemala, Guatemala")
	assert.Contains(t, body, "• Mancuernas 10kg - Cantidad: 1 - Q250.00 c/u")
	assert.Contains(t, body, "Total: Q1,149.99")
	assert.Contains(t, body, "¡Gracias por elegir BLACK GYM!")
}
