package models

// CartItem is one product line inside a cart. JSON tags match the persisted
// blob shape, which in turn mirrors the backend's product fields.
type CartItem struct {
	ProductID      int64   `json:"id"`
	Name           string  `json:"nombre"`
	UnitPrice      float64 `json:"precio"`
	AvailableStock int     `json:"stock"`
	ImageURL       string  `json:"imagen_url"`
	Quantity       int     `json:"cantidad"`
}

func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// CartSnapshot is a point-in-time copy handed to readers; mutating it never
// touches the store.
type CartSnapshot struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
	IsOpen    bool       `json:"isOpen"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}
