package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlatformUber    Platform = "uber"
	Platform99      Platform = "99"
	PlatformInDrive Platform = "indrive"
	PlatformCabify  Platform = "cabify"
	PlatformOther   Platform = "other"
)

const (
	CategoryFuel        Category = "fuel"
	CategoryMaintenance Category = "maintenance"
	CategoryFood        Category = "food"
	CategoryToll        Category = "toll"
	CategoryParking     Category = "parking"
	CategoryOther       Category = "other"
)

type (
	// Platform identifies the ride-hailing app a revenue was earned on.
	Platform string

	// Category classifies an expense.
	Category string

	// Revenue is a single logged earning tied to a platform.
	Revenue struct {
		ID               string          `json:"id"`
		UserID           string          `json:"user_id"`
		Amount           decimal.Decimal `json:"amount"`
		Date             string          `json:"date"` // YYYY-MM-DD
		Description      string          `json:"description"`
		Platform         Platform        `json:"platform"`
		HoursWorked      decimal.Decimal `json:"hours_worked"`
		KilometersRidden decimal.Decimal `json:"kilometers_ridden"`
		TripsCount       int             `json:"trips_count"`
		CreatedAt        time.Time       `json:"created_at"`
		UpdatedAt        time.Time       `json:"updated_at"`
	}

	// Expense is a single logged cost.
	Expense struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Date        string          `json:"date"` // YYYY-MM-DD
		Description string          `json:"description"`
		Category    Category        `json:"category"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidPlatform  = errors.New("invalid platform")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrNegativeHours    = errors.New("hours worked cannot be negative")
	ErrNegativeDistance = errors.New("kilometers ridden cannot be negative")
	ErrNegativeTrips    = errors.New("trips count cannot be negative")
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformUber, Platform99, PlatformInDrive, PlatformCabify, PlatformOther:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFuel, CategoryMaintenance, CategoryFood, CategoryToll, CategoryParking, CategoryOther:
		return true
	}
	return false
}

func (r Revenue) Validate() error {
	if err := ValidateDay(r.Date); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !r.Platform.Valid() {
		return ErrInvalidPlatform
	}
	if r.HoursWorked.IsNegative() {
		return ErrNegativeHours
	}
	if r.KilometersRidden.IsNegative() {
		return ErrNegativeDistance
	}
	if r.TripsCount < 0 {
		return ErrNegativeTrips
	}
	return nil
}

func (e Expense) Validate() error {
	if err := ValidateDay(e.Date); err != nil {
		return err
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}
