package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawdesk/vetclinic-scheduling/internal/db"
)

// simulate hammers a single vet's day with concurrent booking requests
// and then audits the database: if two non-cancelled appointments of that
// vet overlap, the engine's core invariant is broken.

type simConfig struct {
	APIBaseURL  string
	PostgresDSN string
	Workers     int
	Requests    int
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Workers:     getEnvInt("SIM_WORKERS", 20),
		Requests:    getEnvInt("SIM_REQUESTS", 200),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

type metrics struct {
	total     int64
	success   int64
	conflict  int64
	rejected  int64
	errors    int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	case status >= 400 && status < 500:
		atomic.AddInt64(&m.rejected, 1)
	default:
		atomic.AddInt64(&m.errors, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) report() {
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Printf("requests:  %d\n", m.total)
	fmt.Printf("booked:    %d\n", m.success)
	fmt.Printf("conflicts: %d\n", m.conflict)
	fmt.Printf("rejected:  %d\n", m.rejected)
	fmt.Printf("errors:    %d\n", m.errors)

	if len(m.latencies) == 0 {
		return
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	fmt.Printf("latency:   avg=%s p50=%s p95=%s max=%s\n",
		sum/time.Duration(len(sorted)),
		sorted[len(sorted)*50/100],
		sorted[len(sorted)*95/100],
		sorted[len(sorted)-1])
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	vetID, clientID, petID, typeID, clinicID, err := pickActors(context.Background(), pool)
	if err != nil {
		log.Fatalf("pick actors: %v", err)
	}

	// Next Monday, so the seeded Monday-Friday schedule applies and the
	// date is never in the past.
	date := nextMonday(time.Now())
	log.Printf("storming vet=%s date=%s workers=%d requests=%d", vetID, date, cfg.Workers, cfg.Requests)

	starts := candidateStarts()
	var m metrics
	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}
			for range jobs {
				start := starts[rand.Intn(len(starts))]
				latency, status := book(client, cfg.APIBaseURL, bookingRequest{
					VetID:     vetID.String(),
					ClientID:  clientID.String(),
					PetID:     petID.String(),
					TypeID:    typeID.String(),
					ClinicID:  clinicID.String(),
					Date:      date,
					StartTime: start,
					Notes:     "simulated booking",
				})
				m.record(latency, status)
			}
		}()
	}

	for i := 0; i < cfg.Requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	m.report()

	overlaps, err := countOverlaps(context.Background(), pool, vetID, date)
	if err != nil {
		log.Fatalf("audit overlaps: %v", err)
	}
	if overlaps > 0 {
		log.Fatalf("INVARIANT BROKEN: %d overlapping appointment pairs for vet %s on %s", overlaps, vetID, date)
	}
	log.Println("audit passed: no overlapping appointments")
}

type bookingRequest struct {
	VetID     string `json:"vet_id"`
	ClientID  string `json:"client_id"`
	PetID     string `json:"pet_id"`
	TypeID    string `json:"type_id"`
	ClinicID  string `json:"clinic_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Notes     string `json:"notes"`
}

func book(client *http.Client, baseURL string, req bookingRequest) (time.Duration, int) {
	body, _ := json.Marshal(req)

	start := time.Now()
	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		return latency, 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return latency, resp.StatusCode
}

// candidateStarts overlaps on purpose: 15 minute offsets against 30
// minute services guarantee contention.
func candidateStarts() []string {
	var starts []string
	for h := 9; h < 16; h++ {
		for _, m := range []int{0, 15, 30, 45} {
			starts = append(starts, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return starts
}

func nextMonday(now time.Time) string {
	d := now.AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func pickActors(ctx context.Context, pool *pgxpool.Pool) (vetID, clientID, petID, typeID, clinicID uuid.UUID, err error) {
	err = pool.QueryRow(ctx, `
		SELECT v.vet_id, v.clinic_id FROM vets v LIMIT 1
	`).Scan(&vetID, &clinicID)
	if err != nil {
		return
	}
	err = pool.QueryRow(ctx, `
		SELECT p.client_id, p.pet_id FROM pets p LIMIT 1
	`).Scan(&clientID, &petID)
	if err != nil {
		return
	}
	err = pool.QueryRow(ctx, `
		SELECT type_id FROM service_types WHERE duration_minutes = 30 LIMIT 1
	`).Scan(&typeID)
	return
}

func countOverlaps(ctx context.Context, pool *pgxpool.Pool, vetID uuid.UUID, date string) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.vet_id = b.vet_id
		 AND a.date = b.date
		 AND a.id < b.id
		 AND a.start_time < b.end_time
		 AND a.end_time > b.start_time
		WHERE a.vet_id = $1
		  AND a.date = $2::date
		  AND a.status <> 'cancelled'
		  AND b.status <> 'cancelled'
	`, vetID, date).Scan(&count)
	return count, err
}
