package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var appointmentTypes = []string{
	"CONSULTATION",
	"FOLLOW_UP",
	"VACCINATION",
	"CHECKUP",
	"DERMATOLOGY",
	"CARDIOLOGY",
	"PEDIATRICS",
	"PHYSIOTHERAPY",
}

type seedOptions struct {
	doctors      int
	patients     int
	verifiedRate float64
	seed         uint64
}

func seedCmd() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake doctors, weekly availability and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, log, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = log.Sync() }()

			if opts.seed == 0 {
				opts.seed = uint64(time.Now().UnixNano())
			}
			faker := gofakeit.New(opts.seed)

			if err := seedDoctors(cmd.Context(), pool, log, faker, opts); err != nil {
				return fmt.Errorf("seed doctors: %w", err)
			}
			if err := seedPatients(cmd.Context(), pool, log, faker, opts.patients); err != nil {
				return fmt.Errorf("seed patients: %w", err)
			}

			log.Info("seed complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.doctors, "doctors", 100, "number of doctors to create")
	cmd.Flags().IntVar(&opts.patients, "patients", 9000, "number of patients to create")
	cmd.Flags().Float64Var(&opts.verifiedRate, "verified-rate", 0.9, "share of doctors marked verified")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed, 0 picks one from the clock")

	return cmd
}

// weeklyShifts gives every seeded doctor a morning and an afternoon shift on
// weekdays, with an occasional Saturday morning.
func weeklyShifts(faker *gofakeit.Faker) [][3]int {
	var shifts [][3]int
	for day := int(time.Monday); day <= int(time.Friday); day++ {
		shifts = append(shifts, [3]int{day, 8 * 60, 12 * 60}, [3]int{day, 13 * 60, 17 * 60})
	}
	if faker.Bool() {
		shifts = append(shifts, [3]int{int(time.Saturday), 9 * 60, 13 * 60})
	}
	return shifts
}

func minutesToPg(m int) pgtype.Time {
	return pgtype.Time{Microseconds: int64(m) * int64(time.Minute/time.Microsecond), Valid: true}
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger, faker *gofakeit.Faker, opts seedOptions) error {
	log.Info("seeding doctors", zap.Int("count", opts.doctors))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	verified := 0
	for i := 0; i < opts.doctors; i++ {
		id := uuid.New()
		isVerified := faker.Float64Range(0, 1) < opts.verifiedRate

		var verifiedAt *time.Time
		if isVerified {
			at := time.Now().Add(-time.Duration(faker.Number(1, 365*24)) * time.Hour)
			verifiedAt = &at
			verified++
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, role, is_doctor_verified, doctor_verified_at, created_at, updated_at)
			VALUES ($1, $2, $3, 'DOCTOR', $4, $5, now(), now())
		`, id, "Dr. "+faker.Name(), fmt.Sprintf("dr.%s.%d@%s", faker.Username(), i, faker.DomainName()), isVerified, verifiedAt)
		if err != nil {
			return err
		}

		for _, t := range pickTypes(faker) {
			if _, err := tx.Exec(ctx, `
				INSERT INTO specializations (doctor_id, type) VALUES ($1, $2)
			`, id, t); err != nil {
				return err
			}
		}

		batch := &pgx.Batch{}
		for _, s := range weeklyShifts(faker) {
			batch.Queue(`
				INSERT INTO availability_windows (id, doctor_id, day_of_week, start_time, end_time, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, uuid.New(), id, int16(s[0]), minutesToPg(s[1]), minutesToPg(s[2]))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info("doctors seeded", zap.Int("count", opts.doctors), zap.Int("verified", verified))
	return nil
}

func pickTypes(faker *gofakeit.Faker) []string {
	n := faker.Number(1, 3)
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		t := appointmentTypes[faker.Number(0, len(appointmentTypes)-1)]
		if seen[t] {
			continue
		}
		seen[t] = true
		picked = append(picked, t)
	}
	return picked
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger, faker *gofakeit.Faker, count int) error {
	log.Info("seeding patients", zap.Int("count", count))

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		rows := make([][]any, 0, end-offset)
		now := time.Now()
		for i := offset; i < end; i++ {
			// suffix keeps emails unique across large runs
			email := fmt.Sprintf("%s.%d@%s", faker.Username(), i, faker.DomainName())
			rows = append(rows, []any{uuid.New(), faker.Name(), email, "PATIENT", now, now})
		}

		_, err := pool.CopyFrom(ctx,
			pgx.Identifier{"users"},
			[]string{"id", "name", "email", "role", "created_at", "updated_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}

		log.Info("patients seeded", zap.Int("done", end), zap.Int("total", count))
	}

	return nil
}
