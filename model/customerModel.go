// model/customer.go
package model

type Customer struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	Age            int    `json:"age"`
	SubscriptionID *int64 `json:"subscription_id,omitempty"`
}

// CreateCustomerReq represents customer registration payload
// swagger:model CreateCustomerReq
type CreateCustomerReq struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Age     int    `json:"age" validate:"gte=0"`
}

// UpdateCustomerReq replaces name/address/age of an existing customer
// swagger:model UpdateCustomerReq
type UpdateCustomerReq struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Age     int    `json:"age" validate:"gte=0"`
}
