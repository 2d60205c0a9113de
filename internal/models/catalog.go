package models

// Wire types for the backend REST contract. Field names on the wire are the
// backend's Spanish ones; keep the JSON tags in sync with it.

type Producto struct {
	ID          int64   `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion,omitempty"`
	Precio      float64 `json:"precio"`
	Stock       int     `json:"stock"`
	ImagenURL   string  `json:"imagen_url"`
	Categoria   string  `json:"categoria,omitempty"`
	Marca       string  `json:"marca,omitempty"`
	Destacado   bool    `json:"destacado,omitempty"`
}

type Categoria struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	ImagenURL   string `json:"imagen_url,omitempty"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext,omitempty"`
	HasPrev    bool `json:"hasPrev,omitempty"`
}

type ProductPage struct {
	Productos  []Producto `json:"productos"`
	Pagination Pagination `json:"pagination"`
}

type CategoryPage struct {
	Categorias []Categoria `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// OrdenItem is one purchased line inside an order submission.
type OrdenItem struct {
	ID             int64   `json:"id"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
}

type OrdenCreate struct {
	Cliente      string      `json:"cliente"`
	Telefono     string      `json:"telefono"`
	Direccion    string      `json:"direccion"`
	Ciudad       string      `json:"ciudad"`
	Departamento string      `json:"departamento"`
	CodigoPostal string      `json:"codigo_postal,omitempty"`
	Notas        string      `json:"notas,omitempty"`
	Total        float64     `json:"total"`
	Productos    []OrdenItem `json:"productos"`
}

type Orden struct {
	ID        int64   `json:"id"`
	Cliente   string  `json:"cliente"`
	Telefono  string  `json:"telefono"`
	Direccion string  `json:"direccion"`
	Total     float64 `json:"total"`
	Fecha     string  `json:"fecha"`
}

// StockQuery asks the backend whether the requested quantity is still
// available for a product.
type StockQuery struct {
	ID       int64 `json:"id"`
	Cantidad int   `json:"cantidad"`
}

type StockShortfall struct {
	ID      int64  `json:"id"`
	Mensaje string `json:"mensaje"`
}

type StockResult struct {
	OK         bool             `json:"success"`
	Shortfalls []StockShortfall `json:"faltantes,omitempty"`
}
