package product

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the list endpoint.
type ProductListFilters struct {
	LowStock   bool       `json:"low_stock,omitempty"`
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	Query      string     `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}
