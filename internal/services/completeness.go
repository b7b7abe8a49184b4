package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// IsTravelerComplete reports whether a traveler carries every field required
// for processing. HasSchengenVisa must be explicitly answered; an unknown
// tri-state value counts as incomplete.
func IsTravelerComplete(t *models.Traveler) bool {
	if t.PassportNationality == nil || *t.PassportNationality == "" {
		return false
	}
	if t.PassportNumber == nil || *t.PassportNumber == "" {
		return false
	}
	if t.PassportExpiryDate == nil {
		return false
	}
	if t.ResidenceCountry == nil || *t.ResidenceCountry == "" {
		return false
	}
	if t.HasSchengenVisa == nil {
		return false
	}
	return true
}

// IncompleteTraveler identifies a traveler still missing required fields
type IncompleteTraveler struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

// ApplicationCompleteness is the read-only completeness report for an
// application. It never mutates application or traveler state.
type ApplicationCompleteness struct {
	IsComplete          bool                 `json:"is_complete"`
	TotalTravelers      int                  `json:"total_travelers"`
	CompleteTravelers   int                  `json:"complete_travelers"`
	IncompleteTravelers []IncompleteTraveler `json:"incomplete_travelers"`
	Message             string               `json:"message"`
}

// ValidateApplication reports whether every traveler on an application is
// complete. An application with no travelers is never complete.
func (s *ApplicationService) ValidateApplication(ctx context.Context, applicationID uuid.UUID) (*ApplicationCompleteness, error) {
	if _, err := s.GetApplication(ctx, applicationID); err != nil {
		return nil, err
	}

	travelers, err := s.travelerRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, Internal("failed to list travelers", err)
	}

	report := &ApplicationCompleteness{
		TotalTravelers:      len(travelers),
		IncompleteTravelers: []IncompleteTraveler{},
	}

	if len(travelers) == 0 {
		report.Message = "Application has no travelers"
		return report, nil
	}

	for _, t := range travelers {
		if IsTravelerComplete(t) {
			report.CompleteTravelers++
		} else {
			report.IncompleteTravelers = append(report.IncompleteTravelers, IncompleteTraveler{
				ID:       t.ID,
				FullName: t.FullName,
			})
		}
	}

	if len(report.IncompleteTravelers) == 0 {
		report.IsComplete = true
		report.Message = "All travelers are complete"
	} else {
		report.Message = "Some travelers are missing required details"
	}

	return report, nil
}
