package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/api"
	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	PostalCodes []string
	// AbandonRatio is the share of flows that give up at a random step.
	AbandonRatio float64
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, fastest, slowest, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	fastest = latencies[0]
	slowest = latencies[len(latencies)-1]
	p50 = latencies[min(len(latencies)*50/100, len(latencies)-1)]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]

	return avg, fastest, slowest, p50, p95
}

type Metrics struct {
	Session   OperationMetrics
	Lookup    OperationMetrics
	Select    OperationMetrics
	Next      OperationMetrics
	Confirm   OperationMetrics
	Abandoned int64
}

type Simulator struct {
	config  SimConfig
	log     *zap.Logger
	metrics Metrics
}

// flow is one simulated customer: its own cookie jar and fake identity.
type flow struct {
	sim    *Simulator
	client *http.Client
	faker  *gofakeit.Faker
}

var errConflict = errors.New("conflict")

func main() {
	log, err := logging.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	log.Info("simulator starting",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Strings("postal_codes", cfg.PostalCodes),
	)

	sim := &Simulator{config: cfg, log: log}
	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		PostalCodes:  strings.Split(getEnv("SIM_POSTAL_CODES", "64105,64106,64108"), ","),
		AbandonRatio: getFloat("SIM_ABANDON_RATIO", 0.1),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	for _, code := range cfg.PostalCodes {
		if !booking.ValidPostalCode(code) {
			return fmt.Errorf("SIM_POSTAL_CODES: %q is not a 5-digit postal code", code)
		}
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(0)

	for ctx.Err() == nil {
		jar, _ := cookiejar.New(nil)
		f := &flow{
			sim:    s,
			client: &http.Client{Jar: jar, Timeout: 10 * time.Second},
			faker:  faker,
		}
		if err := f.run(ctx); err != nil && ctx.Err() == nil {
			s.log.Debug("booking flow ended", zap.Int("worker", workerID), zap.Error(err))
		}
	}
}

// run drives one booking from session creation to confirmation.
func (f *flow) run(ctx context.Context) error {
	abandonAt := -1
	if f.faker.Float64() < f.sim.config.AbandonRatio {
		abandonAt = f.faker.Number(0, 4)
	}
	abandon := func(step int) bool {
		if step == abandonAt {
			atomic.AddInt64(&f.sim.metrics.Abandoned, 1)
			return true
		}
		return false
	}

	if err := f.call(ctx, &f.sim.metrics.Session, http.MethodPost, "/sessions", nil, nil); err != nil {
		return err
	}

	postal := f.sim.config.PostalCodes[f.faker.Number(0, len(f.sim.config.PostalCodes)-1)]
	apptType := booking.AppointmentTypes[f.faker.Number(0, len(booking.AppointmentTypes)-1)]
	if err := f.call(ctx, &f.sim.metrics.Select, http.MethodPut, "/session/appointment",
		api.AppointmentRequest{AppointmentType: string(apptType), PostalCode: postal}, nil); err != nil {
		return err
	}
	if err := f.next(ctx, "branch"); err != nil || abandon(0) {
		return err
	}

	var branches api.BranchesResponse
	if err := f.call(ctx, &f.sim.metrics.Lookup, http.MethodGet, "/session/branches", nil, &branches); err != nil {
		return err
	}
	if len(branches.Branches) == 0 {
		return fmt.Errorf("no branches for %s", postal)
	}
	picked := branches.Branches[f.faker.Number(0, len(branches.Branches)-1)]
	if err := f.call(ctx, &f.sim.metrics.Select, http.MethodPut, "/session/branch",
		api.BranchRequest{BranchID: picked.ID}, nil); err != nil {
		return err
	}
	if err := f.next(ctx, "time"); err != nil || abandon(1) {
		return err
	}

	slot, err := f.pickSlot(ctx)
	if err != nil {
		return err
	}
	if err := f.call(ctx, &f.sim.metrics.Select, http.MethodPut, "/session/slot",
		api.SlotRequest{Date: slot.Date, Time: slot.Time}, nil); err != nil {
		return err
	}
	if err := f.next(ctx, "contact"); err != nil || abandon(2) {
		return err
	}

	contact := api.ContactRequest{
		Name:  f.faker.Name(),
		Email: f.faker.Email(),
		Phone: f.faker.Numerify("##########"),
	}
	if err := f.call(ctx, &f.sim.metrics.Select, http.MethodPut, "/session/contact", contact, nil); err != nil {
		return err
	}
	if err := f.next(ctx, "review"); err != nil || abandon(3) {
		return err
	}

	var tr api.TransitionResponse
	if err := f.call(ctx, &f.sim.metrics.Confirm, http.MethodPost, "/session/next", nil, &tr); err != nil {
		return err
	}
	if tr.Session.Confirmation == nil {
		return fmt.Errorf("confirmation missing after review")
	}
	return nil
}

// pickSlot pages to a random date window and returns an open slot.
func (f *flow) pickSlot(ctx context.Context) (booking.TimeSlot, error) {
	start := f.faker.Number(0, 1) * booking.PageSize
	var win api.DateWindowResponse
	if err := f.call(ctx, &f.sim.metrics.Lookup, http.MethodGet, "/session/dates?start="+strconv.Itoa(start), nil, &win); err != nil {
		return booking.TimeSlot{}, err
	}

	order := indexes(len(win.Dates))
	f.faker.ShuffleInts(order)
	for _, i := range order {
		var day api.SlotsResponse
		if err := f.call(ctx, &f.sim.metrics.Lookup, http.MethodGet, "/session/dates/"+win.Dates[i].Date+"/slots", nil, &day); err != nil {
			return booking.TimeSlot{}, err
		}
		var open []booking.TimeSlot
		for _, s := range day.Slots {
			if s.Available {
				open = append(open, s)
			}
		}
		if len(open) > 0 {
			return open[f.faker.Number(0, len(open)-1)], nil
		}
	}
	return booking.TimeSlot{}, fmt.Errorf("no open slot in window starting %d", start)
}

func (f *flow) next(ctx context.Context, want string) error {
	var tr api.TransitionResponse
	if err := f.call(ctx, &f.sim.metrics.Next, http.MethodPost, "/session/next", nil, &tr); err != nil {
		return err
	}
	if !tr.Moved || tr.Session.Step != want {
		return fmt.Errorf("expected step %s, still on %s", want, tr.Session.Step)
	}
	return nil
}

// call issues one JSON request and records it under om. 409 responses count
// as conflicts.
func (f *flow) call(ctx context.Context, om *OperationMetrics, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.sim.config.APIBaseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		om.Record(latency, false, false)
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		om.Record(latency, false, true)
		return errConflict
	case resp.StatusCode >= 300:
		om.Record(latency, false, false)
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}

	om.Record(latency, true, false)
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Abandoned flows: %d\n", atomic.LoadInt64(&s.metrics.Abandoned))
	fmt.Println()

	printOperationReport("Create session", &s.metrics.Session)
	printOperationReport("Lookups", &s.metrics.Lookup)
	printOperationReport("Selections", &s.metrics.Select)
	printOperationReport("Step transitions", &s.metrics.Next)
	printOperationReport("Confirm", &s.metrics.Confirm)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, fastest, slowest, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), fastest.Round(time.Millisecond), slowest.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
