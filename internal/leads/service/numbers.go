package service

import (
	"context"
	"fmt"
	"strings"

	"crm_backend/internal/leads/domain"
	"crm_backend/internal/leads/transport"
	"crm_backend/platform/apperr"
)

// GenerateLeadNumber produces the next number in the sequence for the
// given type and the current month. Unknown types use the construction
// sequence.
func (s *Service) GenerateLeadNumber(ctx context.Context, t domain.LeadType) (transport.GeneratedNumberResponse, error) {
	if t == domain.LeadTypeUnknown {
		t = domain.LeadTypeConstruction
	}

	numbers, err := s.store.FindAllLeadNumbersByType(ctx, t)
	if err != nil {
		s.log.DatabaseError("leads.generate_number", err)
		return transport.GeneratedNumberResponse{}, apperr.Wrap(apperr.KindInternal, "failed to generate lead number", err)
	}

	return transport.GeneratedNumberResponse{
		LeadNumber: domain.NextNumber(t, numbers, s.now()),
		LeadType:   string(t),
	}, nil
}

// ValidateLeadNumber checks a candidate number before creation: it must be
// non-empty, well formed, not taken, and its 3-digit prefix must be free
// across all lead types.
func (s *Service) ValidateLeadNumber(ctx context.Context, leadNumber string) (transport.LeadNumberValidationResponse, error) {
	trimmed := trim(leadNumber)
	if trimmed == "" {
		return transport.LeadNumberValidationResponse{Valid: false, Reason: "Lead number is required"}, nil
	}

	exists, err := s.store.ExistsByLeadNumber(ctx, trimmed)
	if err != nil {
		s.log.DatabaseError("leads.validate_number", err)
		return transport.LeadNumberValidationResponse{}, apperr.Wrap(apperr.KindInternal, "failed to validate lead number", err)
	}
	if exists {
		return transport.LeadNumberValidationResponse{Valid: false, Reason: "Lead number already exists"}, nil
	}

	prefix := domain.NumericPrefix(trimmed)
	if prefix == "" {
		return transport.LeadNumberValidationResponse{Valid: false, Reason: "Invalid lead number format"}, nil
	}

	inUse, err := s.isNumericPrefixInUse(ctx, prefix)
	if err != nil {
		return transport.LeadNumberValidationResponse{}, err
	}
	if inUse {
		return transport.LeadNumberValidationResponse{
			Valid:  false,
			Reason: fmt.Sprintf("Lead number prefix %s is already in use", prefix),
		}, nil
	}

	return transport.LeadNumberValidationResponse{Valid: true, Reason: "OK"}, nil
}

// isNumericPrefixInUse scans every type's numbers: the 3-digit prefix is a
// namespace shared across construction, roofing, and plumbing.
func (s *Service) isNumericPrefixInUse(ctx context.Context, prefix string) (bool, error) {
	for _, t := range domain.Types {
		numbers, err := s.store.FindAllLeadNumbersByType(ctx, t)
		if err != nil {
			s.log.DatabaseError("leads.validate_number", err)
			return false, apperr.Wrap(apperr.KindInternal, "failed to validate lead number", err)
		}
		for _, number := range numbers {
			if domain.NumericPrefix(number) == prefix {
				return true, nil
			}
		}
	}
	return false, nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
