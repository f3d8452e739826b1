package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakery-backend/pkg/enums"
)

const DefaultCity = "כפר יהושוע"

// Profile is one-to-one with User and shares its id.
type Profile struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	FullName  string            `gorm:"column:full_name;not null;default:''"`
	Phone     *string           `gorm:"column:phone"`
	Address   string            `gorm:"column:address;not null;default:''"`
	City      string            `gorm:"column:city;not null;default:'כפר יהושוע'"`
	Role      enums.ProfileRole `gorm:"column:role;type:profile_role;not null;default:'customer'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
