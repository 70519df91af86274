package service_test

import (
	"context"
	"errors"
	"testing"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func newRecipientService() *service.RecipientService {
	return &service.RecipientService{
		DonorRepo: &MockDonorRepo{donors: []model.Donor{
			{ID: "d1", UserID: testUser, FirstName: "Amina", LastName: "Otieno", Email: "amina@example.org"},
			{ID: "d2", UserID: testUser, FirstName: "Brian", LastName: "", Email: "BRIAN@example.org"},
			{ID: "d3", UserID: testUser, FirstName: "No", LastName: "Email", Email: " "},
			{ID: "d4", UserID: "other-user", FirstName: "Other", Email: "other@example.org"},
		}},
		VolunteerRepo: &MockVolunteerRepo{volunteers: []model.Volunteer{
			{ID: "v1", UserID: testUser, FirstName: "Chloe", LastName: "Njeri", Email: "chloe@example.org"},
		}},
	}
}

func TestRecipientListMergesAndProjects(t *testing.T) {
	svc := newRecipientService()

	recipients, err := svc.List(context.Background(), testUser, service.RecipientFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipients) != 3 {
		t.Fatalf("expected 3 recipients, got %d: %+v", len(recipients), recipients)
	}

	byID := map[string]model.Recipient{}
	for _, r := range recipients {
		byID[r.ID] = r
	}
	if byID["d1"].Name != "Amina Otieno" || byID["d1"].Type != model.RecipientDonor {
		t.Errorf("unexpected donor projection %+v", byID["d1"])
	}
	if byID["d2"].Name != "Brian" {
		t.Errorf("expected trimmed display name, got %q", byID["d2"].Name)
	}
	if byID["v1"].Type != model.RecipientVolunteer {
		t.Errorf("unexpected volunteer projection %+v", byID["v1"])
	}
	if _, ok := byID["d4"]; ok {
		t.Errorf("recipients of other users must not be listed")
	}
}

func TestRecipientListFilters(t *testing.T) {
	svc := newRecipientService()

	tests := []struct {
		filter service.RecipientFilter
		want   int
	}{
		{service.RecipientFilter{Type: "donor"}, 2},
		{service.RecipientFilter{Type: "volunteer"}, 1},
		{service.RecipientFilter{Type: "both"}, 3},
		{service.RecipientFilter{Search: "brian@"}, 1},
		{service.RecipientFilter{Search: "NJERI"}, 1},
		{service.RecipientFilter{Type: "volunteer", Search: "amina"}, 0},
	}
	for _, tt := range tests {
		got, err := svc.List(context.Background(), testUser, tt.filter)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", tt.filter, err)
		}
		if len(got) != tt.want {
			t.Errorf("%+v: expected %d, got %d", tt.filter, tt.want, len(got))
		}
	}
}

func TestRecipientListInvalidType(t *testing.T) {
	_, err := newRecipientService().List(context.Background(), testUser, service.RecipientFilter{Type: "board"})
	var verr *appErrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecipientListAbortsOnAnyFetchError(t *testing.T) {
	dbErr := errors.New("permission denied for table volunteers")
	svc := newRecipientService()
	svc.VolunteerRepo = &MockVolunteerRepo{err: dbErr}

	recipients, err := svc.List(context.Background(), testUser, service.RecipientFilter{})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if recipients != nil {
		t.Errorf("expected no partial result, got %d recipients", len(recipients))
	}
}

func TestRecipientResolveKeepsOrderAndSkipsUnknown(t *testing.T) {
	svc := newRecipientService()

	got, err := svc.Resolve(context.Background(), testUser, []string{"v1", "missing", "d1", "d4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "v1" || got[1].ID != "d1" {
		t.Errorf("unexpected resolution %+v", got)
	}
}
