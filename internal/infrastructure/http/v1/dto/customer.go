package dto

import "stockledger/internal/domain/customer"

type CreateCustomerRequest struct {
	Name      string `json:"name" binding:"required"`
	GSTIN     string `json:"gstin,omitempty"`
	State     string `json:"state,omitempty"`
	StateCode string `json:"stateCode,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (r *CreateCustomerRequest) ToDomain() customer.CreateRequest {
	return customer.CreateRequest{
		Name:      r.Name,
		GSTIN:     r.GSTIN,
		State:     r.State,
		StateCode: r.StateCode,
		Address:   r.Address,
	}
}
