package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/angelmondragon/bakery-backend/pkg/phone"
)

type ProfileDTO struct {
	ID           uuid.UUID         `json:"id"`
	FullName     string            `json:"full_name"`
	Phone        *string           `json:"phone,omitempty"`
	PhoneDisplay string            `json:"phone_display,omitempty"`
	Address      string            `json:"address"`
	City         string            `json:"city"`
	Role         enums.ProfileRole `json:"role"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// UpdateProfileInput is a partial update; nil fields are left alone. An
// empty phone clears it. Role is deliberately absent.
type UpdateProfileInput struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=100"`
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	dto := &ProfileDTO{
		ID:        p.ID,
		FullName:  p.FullName,
		Phone:     p.Phone,
		Address:   p.Address,
		City:      p.City,
		Role:      p.Role,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Phone != nil {
		dto.PhoneDisplay = phone.FormatForDisplay(*p.Phone)
	}
	return dto
}
