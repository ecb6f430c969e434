package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/notification"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type LoginResponse struct {
	Token string `json:"token"`
}

// SendNotificationRequest carries a notification payload plus its targeting.
// Exactly one of RecipientID, RecipientIDs or Role must be set; the
// "/notifications/broadcast" endpoint ignores all three.
type SendNotificationRequest struct {
	notification.NewNotification
	RecipientID  string   `json:"recipient_id"`
	RecipientIDs []string `json:"recipient_ids"`
	Role         string   `json:"role"`
}

type ReplyRequest struct {
	Message string `json:"message" validate:"required"`
}

func (r *ReplyRequest) Validate(validate *validator.Validate) error {
	r.Message = core.CleanString(r.Message)
	return validate.Struct(r)
}
