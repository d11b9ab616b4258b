package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawdesk/vetclinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := createSchema(context.Background(), pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	clinicIDs, err := seedClinics(context.Background(), pool, 5)
	if err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	vetIDs, err := seedVets(context.Background(), pool, clinicIDs, 40)
	if err != nil {
		log.Fatalf("seed vets: %v", err)
	}
	if err := seedClientsAndPets(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedServiceTypes(context.Background(), pool); err != nil {
		log.Fatalf("seed service types: %v", err)
	}
	if err := seedSchedules(context.Background(), pool, vetIDs); err != nil {
		log.Fatalf("seed schedules: %v", err)
	}

	log.Println("seed complete")
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clinics (
			clinic_id   uuid PRIMARY KEY,
			clinic_name text NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS vets (
			vet_id         uuid PRIMARY KEY,
			name           text NOT NULL,
			specialization text,
			clinic_id      uuid REFERENCES clinics (clinic_id)
		);

		CREATE TABLE IF NOT EXISTS clients (
			client_id   uuid PRIMARY KEY,
			client_name text NOT NULL,
			phone       text
		);

		CREATE TABLE IF NOT EXISTS pets (
			pet_id    uuid PRIMARY KEY,
			client_id uuid REFERENCES clients (client_id),
			name      text NOT NULL,
			species   text,
			breed     text
		);

		CREATE TABLE IF NOT EXISTS service_types (
			type_id          uuid PRIMARY KEY,
			name             text NOT NULL,
			duration_minutes int  NOT NULL CHECK (duration_minutes > 0)
		);

		CREATE TABLE IF NOT EXISTS vet_schedules (
			schedule_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			vet_id      uuid NOT NULL REFERENCES vets (vet_id),
			day_of_week int  NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
			start_time  time NOT NULL,
			end_time    time NOT NULL,
			UNIQUE (vet_id, day_of_week)
		);

		CREATE TABLE IF NOT EXISTS appointments (
			id         uuid PRIMARY KEY,
			vet_id     uuid NOT NULL REFERENCES vets (vet_id),
			client_id  uuid NOT NULL REFERENCES clients (client_id),
			pet_id     uuid REFERENCES pets (pet_id),
			type_id    uuid REFERENCES service_types (type_id),
			clinic_id  uuid REFERENCES clinics (clinic_id),
			date       date NOT NULL,
			start_time time NOT NULL,
			end_time   time NOT NULL,
			status     text NOT NULL,
			notes      text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			CHECK (start_time < end_time)
		);

		CREATE INDEX IF NOT EXISTS idx_appointments_vet_date
			ON appointments (vet_id, date);
	`)
	return err
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinics", count)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Company() + " Veterinary Clinic"
		_, err := pool.Exec(ctx, `
			INSERT INTO clinics (clinic_id, clinic_name)
			VALUES ($1, $2)
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedVets(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d vets", count)

	specializations := []string{
		"General Practice",
		"Surgery",
		"Dermatology",
		"Dentistry",
		"Exotic Animals",
		"Cardiology",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		clinic := clinicIDs[gofakeit.Number(0, len(clinicIDs)-1)]
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO vets (vet_id, name, specialization, clinic_id)
			VALUES ($1, $2, $3, $4)
		`, id, "Dr. "+gofakeit.Name(), spec, clinic)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedClientsAndPets(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients with pets", count)

	species := []string{"Dog", "Cat", "Rabbit", "Parrot", "Hamster"}

	const batchSize = 100
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			clientID := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO clients (client_id, client_name, phone)
				VALUES ($1, $2, $3)
			`, clientID, gofakeit.Name(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			pets := gofakeit.Number(1, 3)
			for p := 0; p < pets; p++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO pets (pet_id, client_id, name, species, breed)
					VALUES ($1, $2, $3, $4, $5)
				`, uuid.New(), clientID, gofakeit.PetName(),
					species[gofakeit.Number(0, len(species)-1)], gofakeit.Adjective())
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("clients seeded: %d/%d", end, count)
	}

	return nil
}

func seedServiceTypes(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding service types")

	types := []struct {
		name    string
		minutes int
	}{
		{"Checkup", 30},
		{"Vaccination", 15},
		{"Dental Cleaning", 60},
		{"Surgery Consultation", 45},
		{"Grooming", 60},
		{"Emergency Visit", 30},
	}

	for _, t := range types {
		_, err := pool.Exec(ctx, `
			INSERT INTO service_types (type_id, name, duration_minutes)
			VALUES ($1, $2, $3)
		`, uuid.New(), t.name, t.minutes)
		if err != nil {
			return err
		}
	}
	return nil
}

// seedSchedules gives every vet Monday-Friday hours, with a random start
// of 08:00 or 09:00 and end of 16:00 or 17:00.
func seedSchedules(ctx context.Context, pool *pgxpool.Pool, vetIDs []uuid.UUID) error {
	log.Printf("seeding weekly schedules for %d vets", len(vetIDs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, vetID := range vetIDs {
		start := []string{"08:00", "09:00"}[gofakeit.Number(0, 1)]
		end := []string{"16:00", "17:00"}[gofakeit.Number(0, 1)]

		for day := 1; day <= 5; day++ { // Monday..Friday
			_, err := tx.Exec(ctx, `
				INSERT INTO vet_schedules (vet_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3::time, $4::time)
				ON CONFLICT (vet_id, day_of_week) DO NOTHING
			`, vetID, day, start, end)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
