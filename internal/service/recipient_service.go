package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// RecipientFilter narrows an aggregated list. Type is donor, volunteer, both or empty.
type RecipientFilter struct {
	Type   string
	Search string
}

// RecipientService merges donors and volunteers into one recipient list.
type RecipientService struct {
	DonorRepo     repository.DonorRepositoryInterface
	VolunteerRepo repository.VolunteerRepositoryInterface
}

// List returns every matching recipient of the user. Either table failing to
// load fails the whole call.
func (s *RecipientService) List(ctx context.Context, userID string, filter RecipientFilter) ([]model.Recipient, error) {
	wantDonors, wantVolunteers, err := audience(filter.Type)
	if err != nil {
		return nil, err
	}

	var donors []model.Donor
	var volunteers []model.Volunteer

	g, gctx := errgroup.WithContext(ctx)
	if wantDonors {
		g.Go(func() error {
			var err error
			donors, err = s.DonorRepo.ListByUser(gctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load donors: %w", err)
			}
			return nil
		})
	}
	if wantVolunteers {
		g.Go(func() error {
			var err error
			volunteers, err = s.VolunteerRepo.ListByUser(gctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load volunteers: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("Recipient aggregation failed")
		return nil, err
	}

	contacts := make([]model.Contact, 0, len(donors)+len(volunteers))
	for _, d := range donors {
		contacts = append(contacts, d)
	}
	for _, v := range volunteers {
		contacts = append(contacts, v)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	recipients := make([]model.Recipient, 0, len(contacts))
	for _, c := range contacts {
		r := c.Recipient()
		if strings.TrimSpace(r.Email) == "" {
			continue
		}
		if search != "" && !matches(r, search) {
			continue
		}
		recipients = append(recipients, r)
	}
	return recipients, nil
}

// Resolve returns the recipients with the given ids, in the order given.
// Ids that no longer exist are skipped.
func (s *RecipientService) Resolve(ctx context.Context, userID string, ids []string) ([]model.Recipient, error) {
	all, err := s.List(ctx, userID, RecipientFilter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Recipient, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}

	resolved := make([]model.Recipient, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			logrus.WithFields(logrus.Fields{"user_id": userID, "recipient_id": id}).Warn("Recipient not found, skipping")
			continue
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

func audience(t string) (donors, volunteers bool, err error) {
	switch t {
	case "", model.AudienceBoth:
		return true, true, nil
	case model.AudienceDonor:
		return true, false, nil
	case model.AudienceVolunteer:
		return false, true, nil
	}
	return false, false, &appErrors.ValidationError{Fields: map[string]string{
		"type": "must be one of donor, volunteer, both",
	}}
}

func matches(r model.Recipient, search string) bool {
	return strings.Contains(strings.ToLower(r.Name), search) ||
		strings.Contains(strings.ToLower(r.Email), search)
}
