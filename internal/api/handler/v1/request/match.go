package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type SelectNumberRequest struct {
	Number int `json:"number" binding:"required"`
}

func (req *SelectNumberRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Number, validation.Required, validation.Min(10), validation.Max(99)),
	)
}
