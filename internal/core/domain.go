package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	CategoryFood      Category = "식비"
	CategoryTransport Category = "교통비"
	CategoryShopping  Category = "쇼핑"
	CategoryMedical   Category = "의료비"
	CategoryEducation Category = "교육비"
	CategoryCulture   Category = "문화생활"
	CategoryHousing   Category = "주거비"
	CategoryOther     Category = "기타"
)

// MaxAmount is the largest accepted single-receipt amount, in whole won.
const MaxAmount int64 = 10_000_000

type (
	Category string

	// Receipt is one recorded purchase. Date carries calendar significance
	// only; time-of-day is ignored everywhere.
	Receipt struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Amount      int64     `json:"amount"`
		Date        time.Time `json:"date"`
		Category    Category  `json:"category"`
		StoreName   string    `json:"storeName"`
		Description string    `json:"description,omitempty"`
		ImageURL    string    `json:"imageUrl,omitempty"`
		Tags        []string  `json:"tags,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// ReceiptInput is the payload for creating a receipt. The repository
	// assigns ID and timestamps.
	ReceiptInput struct {
		Title       string    `json:"title"`
		Amount      int64     `json:"amount"`
		Date        time.Time `json:"date"`
		Category    Category  `json:"category"`
		StoreName   string    `json:"storeName"`
		Description string    `json:"description,omitempty"`
		ImageURL    string    `json:"imageUrl,omitempty"`
		Tags        []string  `json:"tags,omitempty"`
	}

	// ReceiptPatch is a partial update; nil fields keep their prior value.
	ReceiptPatch struct {
		Title       *string    `json:"title,omitempty"`
		Amount      *int64     `json:"amount,omitempty"`
		Date        *time.Time `json:"date,omitempty"`
		Category    *Category  `json:"category,omitempty"`
		StoreName   *string    `json:"storeName,omitempty"`
		Description *string    `json:"description,omitempty"`
		ImageURL    *string    `json:"imageUrl,omitempty"`
		Tags        []string   `json:"tags,omitempty"`
	}
)

var (
	ErrEmptyTitle         = errors.New("empty title")
	ErrTitleTooLong       = errors.New("title too long (max 100 characters)")
	ErrEmptyStoreName     = errors.New("empty store name")
	ErrStoreNameTooLong   = errors.New("store name too long (max 50 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountTooLarge     = errors.New("amount too large")
	ErrInvalidDate        = errors.New("invalid date")
	ErrDateOutOfRange     = errors.New("date must be within the last year and not in the future")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
	ErrInvalidImageURL    = errors.New("invalid image url")
)

var allCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryMedical,
	CategoryEducation,
	CategoryCulture,
	CategoryHousing,
	CategoryOther,
}

// Categories returns the fixed category set in display order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func ValidCategory(c Category) bool {
	for _, v := range allCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Validate applies the form-layer rules to a create payload. The date window
// check is relative to now; the repository itself never re-checks it.
func (in ReceiptInput) Validate(now time.Time) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(in.Title) > 100 {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(in.StoreName) == "" {
		return ErrEmptyStoreName
	}
	if utf8.RuneCountInString(in.StoreName) > 50 {
		return ErrStoreNameTooLong
	}
	if in.Amount < 1 {
		return ErrInvalidAmount
	}
	if in.Amount > MaxAmount {
		return ErrAmountTooLarge
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := validateDateWindow(in.Date, now); err != nil {
		return err
	}
	if !ValidCategory(in.Category) {
		return ErrInvalidCategory
	}
	if utf8.RuneCountInString(in.Description) > 500 {
		return ErrDescriptionTooLong
	}
	if err := validateImageURL(in.ImageURL); err != nil {
		return err
	}
	return nil
}

// Validate checks only the fields a patch actually sets.
func (p ReceiptPatch) Validate(now time.Time) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return ErrEmptyTitle
		}
		if utf8.RuneCountInString(*p.Title) > 100 {
			return ErrTitleTooLong
		}
	}
	if p.StoreName != nil {
		if strings.TrimSpace(*p.StoreName) == "" {
			return ErrEmptyStoreName
		}
		if utf8.RuneCountInString(*p.StoreName) > 50 {
			return ErrStoreNameTooLong
		}
	}
	if p.Amount != nil {
		if *p.Amount < 1 {
			return ErrInvalidAmount
		}
		if *p.Amount > MaxAmount {
			return ErrAmountTooLarge
		}
	}
	if p.Date != nil {
		if p.Date.IsZero() {
			return ErrInvalidDate
		}
		if err := validateDateWindow(*p.Date, now); err != nil {
			return err
		}
	}
	if p.Category != nil && !ValidCategory(*p.Category) {
		return ErrInvalidCategory
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > 500 {
		return ErrDescriptionTooLong
	}
	if p.ImageURL != nil {
		if err := validateImageURL(*p.ImageURL); err != nil {
			return err
		}
	}
	return nil
}

func validateDateWindow(d, now time.Time) error {
	// Compare at day granularity so a same-day purchase entered in the
	// evening is never rejected as "in the future".
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(today) {
		return ErrDateOutOfRange
	}
	if day.Before(today.AddDate(-1, 0, 0)) {
		return ErrDateOutOfRange
	}
	return nil
}

func validateImageURL(u string) error {
	if u == "" {
		return nil
	}
	if strings.HasPrefix(u, "data:image/") {
		return nil
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return nil
	}
	return ErrInvalidImageURL
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether two timestamps fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
