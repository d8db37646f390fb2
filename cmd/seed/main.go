package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	"github.com/hackgods/dental-clinic-scheduling/internal/config"
	"github.com/hackgods/dental-clinic-scheduling/internal/db"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

type serviceTemplate struct {
	name     string
	category string
	minutes  int
	minPrice int
	maxPrice int
}

var dentalServices = []serviceTemplate{
	{"Check-up & exam", "General", 30, 40, 90},
	{"Scale & polish", "Hygiene", 45, 60, 120},
	{"Composite filling", "Restorative", 60, 120, 250},
	{"Root canal treatment", "Endodontics", 90, 600, 1200},
	{"Tooth extraction", "Surgery", 45, 150, 400},
	{"Teeth whitening", "Cosmetic", 60, 250, 600},
	{"Crown fitting", "Restorative", 90, 700, 1400},
	{"Orthodontic consultation", "Orthodontics", 30, 0, 80},
}

var timezones = []string{"UTC", "Europe/London", "Europe/Berlin", "America/New_York", "Asia/Kolkata"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	logger.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	count := 5
	if v, err := strconv.Atoi(os.Getenv("SEED_CLINICS")); err == nil && v > 0 {
		count = v
	}

	s := &seeder{
		faker:   gofakeit.New(0),
		clinics: clinic.NewPgRepository(pool),
		hours:   schedule.NewPgRepository(pool),
		logger:  logger,
	}

	clinicIDs, err := s.seedClinics(ctx, count)
	if err != nil {
		logger.Error("seed clinics", "error", err)
		os.Exit(1)
	}

	if err := printTokens(auth.NewTokens(cfg.JWTSecret, 7*24*time.Hour), clinicIDs); err != nil {
		logger.Error("issue tokens", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete", "clinics", len(clinicIDs))
}

type seeder struct {
	faker   *gofakeit.Faker
	clinics *clinic.PgRepository
	hours   *schedule.PgRepository
	logger  *logging.Logger
}

func (s *seeder) seedClinics(ctx context.Context, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, count)

	for i := 0; i < count; i++ {
		status := clinic.ClinicApproved
		if i == count-1 && count > 1 {
			status = clinic.ClinicPending
		}

		c, err := s.clinics.CreateClinic(ctx, clinic.Clinic{
			Name:     s.faker.LastName() + " Dental Care",
			Timezone: timezones[s.faker.Number(0, len(timezones)-1)],
			Status:   status,
		})
		if err != nil {
			return nil, err
		}

		if err := s.seedServices(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("services for %s: %w", c.ID, err)
		}
		if _, err := s.hours.ReplaceWeek(ctx, c.ID, s.week(c.ID)); err != nil {
			return nil, fmt.Errorf("working hours for %s: %w", c.ID, err)
		}

		s.logger.Info("clinic seeded", "clinic_id", c.ID, "name", c.Name, "timezone", c.Timezone, "status", c.Status)
		ids = append(ids, c.ID)
	}

	return ids, nil
}

func (s *seeder) seedServices(ctx context.Context, clinicID uuid.UUID) error {
	for i, tpl := range dentalServices {
		// every clinic offers the check-up; the rest are a coin toss
		if i > 0 && !s.faker.Bool() {
			continue
		}
		svc := clinic.Service{
			ClinicID:        clinicID,
			Name:            tpl.name,
			Category:        tpl.category,
			DurationMinutes: tpl.minutes,
			PriceCents:      int64(s.faker.Number(tpl.minPrice, tpl.maxPrice)) * 100,
			Active:          true,
		}
		if _, err := s.clinics.CreateService(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}

// week starts from the default Mon-Fri template, adds a lunch break to most
// clinics and opens some on Saturday morning.
func (s *seeder) week(clinicID uuid.UUID) []schedule.WorkingHour {
	week := schedule.DefaultWeek(clinicID)
	if s.faker.Bool() || s.faker.Bool() {
		start, end := schedule.NewClock(12, 0), schedule.NewClock(13, 0)
		for i := range week {
			week[i].BreakStart = &start
			week[i].BreakEnd = &end
		}
	}
	if s.faker.Bool() {
		week = append(week, schedule.WorkingHour{
			ClinicID:    clinicID,
			Day:         schedule.Saturday,
			Open:        schedule.NewClock(9, 0),
			Close:       schedule.NewClock(13, 0),
			SlotMinutes: 30,
		})
	}
	return week
}

func printTokens(tokens *auth.Tokens, clinicIDs []uuid.UUID) error {
	admin, err := tokens.Issue(auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin})
	if err != nil {
		return err
	}
	fmt.Printf("ADMIN_TOKEN=%s\n", admin)

	for i, id := range clinicIDs {
		staff, err := tokens.Issue(auth.Actor{UserID: uuid.New(), Role: auth.RoleClinicStaff, ClinicID: id})
		if err != nil {
			return err
		}
		fmt.Printf("CLINIC_%d_ID=%s\nCLINIC_%d_STAFF_TOKEN=%s\n", i+1, id, i+1, staff)
	}

	patient, err := tokens.Issue(auth.Actor{UserID: uuid.New(), Role: auth.RolePatient})
	if err != nil {
		return err
	}
	fmt.Printf("PATIENT_TOKEN=%s\n", patient)
	return nil
}
