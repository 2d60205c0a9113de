package models

// CheckoutForm carries the customer identity and shipping fields captured on
// the first checkout step. Postal code and notes are the only optional ones.
type CheckoutForm struct {
	Name       string `json:"cliente" validate:"required"`
	Phone      string `json:"telefono" validate:"required,phonedigits"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"direccion" validate:"required"`
	City       string `json:"ciudad" validate:"required"`
	Region     string `json:"departamento" validate:"required"`
	PostalCode string `json:"codigo_postal,omitempty"`
	Notes      string `json:"notas,omitempty"`
}

// CardDetails is the transient payment capture. It is never persisted and
// never logged; only the masked display form may outlive the payment step.
type CardDetails struct {
	Number      string `json:"card_number"`
	Holder      string `json:"card_holder"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
}
