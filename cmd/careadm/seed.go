package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository/postgres"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/security"
)

type seedOptions struct {
	Nurses   int
	Patients int
	Password string
	Seed     int64
}

type seedSummary struct {
	Catalogs int
	Users    int
	Blocks   int
	Skipped  int
}

func (s seedSummary) String() string {
	return fmt.Sprintf("seeded %d catalog entries, %d users, %d availability blocks (%d existing users skipped)",
		s.Catalogs, s.Users, s.Blocks, s.Skipped)
}

var defaultCatalogs = map[model.Catalog][]model.CatalogEntry{
	model.CatalogServiceTypes: {
		{Code: "checkup", Name: "General checkup", Active: true},
		{Code: "followup", Name: "Follow-up visit", Active: true},
		{Code: "vaccination", Name: "Vaccination", Active: true},
	},
	model.CatalogAlertTypes: {
		{Code: "fall", Name: "Fall", Active: true},
		{Code: "pain", Name: "Pain", Active: true},
		{Code: "assistance", Name: "Needs assistance", Active: true},
	},
	model.CatalogNoteTypes: {
		{Code: "progress", Name: "Progress note", Active: true},
		{Code: "triage", Name: "Triage note", Active: true},
	},
}

// Weekday mornings and afternoons, Monday to Friday.
var defaultBlocks = [][2]string{{"09:00", "12:00"}, {"14:00", "17:00"}}

func seed(ctx context.Context, repos *postgres.Repositories, hasher security.PasswordHasher, opts seedOptions) (seedSummary, error) {
	var summary seedSummary
	faker := gofakeit.New(uint64(opts.Seed))

	for catalog, entries := range defaultCatalogs {
		for _, e := range entries {
			entry := e
			if err := repos.Catalogs.Upsert(ctx, catalog, &entry); err != nil {
				return summary, fmt.Errorf("failed to seed %s: %w", catalog, err)
			}
			summary.Catalogs++
		}
	}

	_, created, err := ensureUser(ctx, repos, hasher, "admin@care.local", opts.Password, model.RoleAdmin)
	if err != nil {
		return summary, err
	}
	summary.count(created)

	for i := 0; i < opts.Nurses; i++ {
		nurse, created, err := ensureUser(ctx, repos, hasher, fakeEmail(faker, "nurse"), opts.Password, model.RoleNurse)
		if err != nil {
			return summary, err
		}
		summary.count(created)
		if !created {
			continue
		}
		for weekday := 0; weekday < 5; weekday++ {
			for _, b := range defaultBlocks {
				block := &model.AvailabilityBlock{StaffID: nurse.ID, Weekday: weekday, StartTime: b[0], EndTime: b[1]}
				if err := repos.Availability.Create(ctx, block); err != nil {
					return summary, fmt.Errorf("failed to seed availability: %w", err)
				}
				summary.Blocks++
			}
		}
	}

	for i := 0; i < opts.Patients; i++ {
		patient, created, err := ensureUser(ctx, repos, hasher, fakeEmail(faker, "patient"), opts.Password, model.RolePatient)
		if err != nil {
			return summary, err
		}
		summary.count(created)
		if !created {
			continue
		}
		if err := repos.Patients.UpsertProfile(ctx, fakeProfile(faker, patient.ID)); err != nil {
			return summary, fmt.Errorf("failed to seed patient profile: %w", err)
		}
	}

	return summary, nil
}

func (s *seedSummary) count(created bool) {
	if created {
		s.Users++
	} else {
		s.Skipped++
	}
}

func fakeEmail(faker *gofakeit.Faker, prefix string) string {
	return strings.ToLower(fmt.Sprintf("%s.%s.%s@care.local", prefix, faker.FirstName(), faker.LetterN(4)))
}

func fakeProfile(faker *gofakeit.Faker, userID int64) *model.PatientProfile {
	sex := faker.RandomString([]string{"M", "F", "X"})
	contact := faker.Phone()
	now := time.Now().UTC()
	birth := model.Date{Time: faker.DateRange(now.AddDate(-90, 0, 0), now.AddDate(-1, 0, 0)).Truncate(24 * time.Hour)}
	return &model.PatientProfile{
		UserID:           userID,
		FirstName:        faker.FirstName(),
		LastName:         faker.LastName(),
		BirthDate:        &birth,
		Sex:              &sex,
		EmergencyContact: &contact,
	}
}

// ensureUser creates the account unless the email is already registered.
func ensureUser(ctx context.Context, repos *postgres.Repositories, hasher security.PasswordHasher,
	email, password string, role model.Role) (*model.User, bool, error) {
	existing, err := repos.Users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up %s: %w", email, err)
	}
	user, err := createUser(ctx, repos, hasher, email, password, role)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func createUser(ctx context.Context, repos *postgres.Repositories, hasher security.PasswordHasher,
	email, password string, role model.Role) (*model.User, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: strings.ToLower(strings.TrimSpace(email)), PasswordHash: hash, Role: role, Active: true}
	if err := repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", email, err)
	}
	return user, nil
}
