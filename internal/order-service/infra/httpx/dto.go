package httpx

import (
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

// CreateOrderRequest is the body of POST /order/create. Items are accepted for
// compatibility with older clients but the cart is the source of truth.
type CreateOrderRequest struct {
	UserID          domain.ID           `json:"user_id" validate:"required"`
	Items           []CreateOrderItem   `json:"items" validate:"omitempty,dive"`
	ShippingAddress *ShippingAddressDTO `json:"shippingAddress"`
}

type CreateOrderItem struct {
	ProductID domain.ID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type ShippingAddressDTO struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalCode"`
}

func (a *ShippingAddressDTO) toDomain() *domain.ShippingAddress {
	if a == nil {
		return nil
	}
	return &domain.ShippingAddress{
		Street:     a.Street,
		City:       a.City,
		Province:   a.Province,
		PostalCode: a.PostalCode,
	}
}

type UpdateStatusRequest struct {
	Status domain.Status `json:"status" validate:"required,oneof=Pending Processing Shipped Delivered"`
}
