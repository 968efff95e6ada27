package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type SubmitDecisionRequest struct {
	PartnerID    uint     `json:"partner_id" binding:"required"`
	Share        bool     `json:"share"`
	FeedbackTags []string `json:"feedback_tags"`
}

func (req *SubmitDecisionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PartnerID, validation.Required),
		validation.Field(&req.FeedbackTags, validation.Length(0, 10)),
	)
}
