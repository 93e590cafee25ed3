package dto

import (
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
)

type PlanFeature struct {
	Enabled bool   `json:"enabled"`
	Limit   *int64 `json:"limit,omitempty"`
}

type Plan struct {
	ID                string                 `json:"id"`
	PlanType          string                 `json:"plan_type"`
	Name              string                 `json:"name"`
	Description       *string                `json:"description,omitempty"`
	Version           int                    `json:"version"`
	PreviousVersionID *string                `json:"previous_version_id,omitempty"`
	Status            string                 `json:"status"`
	IsPublic          bool                   `json:"is_public"`
	PriceMonthly      string                 `json:"price_monthly"`
	PriceYearly       string                 `json:"price_yearly"`
	Currency          string                 `json:"currency"`
	TrialDays         int                    `json:"trial_days"`
	MaxHostels        *int64                 `json:"max_hostels"`
	MaxRooms          *int64                 `json:"max_rooms"`
	MaxStudents       *int64                 `json:"max_students"`
	MaxAdmins         *int64                 `json:"max_admins"`
	Features          map[string]PlanFeature `json:"features"`
	CreatedAt         string                 `json:"created_at"`
	UpdatedAt         string                 `json:"updated_at"`
}

func FromPlan(p models.Plan) Plan {
	features := make(map[string]PlanFeature, len(p.Features))
	for key, feature := range p.Features {
		features[key] = PlanFeature{Enabled: feature.Enabled, Limit: feature.Limit}
	}
	return Plan{
		ID:                p.ID.String(),
		PlanType:          p.PlanType,
		Name:              p.Name,
		Description:       p.Description,
		Version:           p.Version,
		PreviousVersionID: UUIDPtr(p.PreviousVersionID),
		Status:            string(p.Status),
		IsPublic:          p.IsPublic,
		PriceMonthly:      Money(p.PriceMonthly),
		PriceYearly:       Money(p.PriceYearly),
		Currency:          p.Currency,
		TrialDays:         p.TrialDays,
		MaxHostels:        p.MaxHostels,
		MaxRooms:          p.MaxRooms,
		MaxStudents:       p.MaxStudents,
		MaxAdmins:         p.MaxAdmins,
		Features:          features,
		CreatedAt:         Timestamp(p.CreatedAt),
		UpdatedAt:         Timestamp(p.UpdatedAt),
	}
}

func FromPlans(plans []models.Plan) []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, FromPlan(p))
	}
	return out
}
