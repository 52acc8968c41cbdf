// Package main implements a load generator that drives the circulation engine
// with a configurable request rate, deliberately contending over a small set
// of book copies to exercise the serializable retry path.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine"
)

// LoadGenerator orchestrates checkout/return load against the circulation
// engine. Far fewer copies than borrowers means most requests collide, which
// is the point: the interesting behavior is how conflicts resolve.
type LoadGenerator struct {
	engine postgresengine.Engine
	pool   *pgxpool.Pool
	config Config

	librarianID uuid.UUID
	borrowerIDs []uuid.UUID
	copyIDs     []uuid.UUID

	// Rate limiting
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Metrics
	requestCount  int64
	conflictCount int64
	errorCount    int64
	startTime     time.Time
	mu            sync.RWMutex
}

// NewLoadGenerator creates a new LoadGenerator instance.
// The pool is used only for seeding users and roles, which are
// administrative data outside the engine's workflow surface.
func NewLoadGenerator(engine postgresengine.Engine, pool *pgxpool.Pool, config Config) *LoadGenerator {
	return &LoadGenerator{
		engine:   engine,
		pool:     pool,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Seed creates the demo book, its copies, a librarian, and the borrowers.
func (lg *LoadGenerator) Seed(ctx context.Context) error {
	book, err := lg.engine.CreateBook(ctx, circulation.CreateBookCommand{
		Title:       "Load Test Book",
		Author:      "Test Author",
		ISBN:        "978-0000000000",
		TotalCopies: lg.config.Copies,
	})
	if err != nil {
		return fmt.Errorf("creating the demo book: %w", err)
	}

	rows, err := lg.pool.Query(ctx,
		`SELECT id FROM book_copies WHERE book_id = $1`, book.Book.ID.String())
	if err != nil {
		return fmt.Errorf("reading the demo copies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var copyIDStr string
		if scanErr := rows.Scan(&copyIDStr); scanErr != nil {
			return fmt.Errorf("scanning a demo copy: %w", scanErr)
		}
		lg.copyIDs = append(lg.copyIDs, uuid.MustParse(copyIDStr))
	}

	staffRoleID, err := lg.seedRole(ctx, "demo-librarian")
	if err != nil {
		return err
	}

	memberRoleID, err := lg.seedRole(ctx, "demo-member")
	if err != nil {
		return err
	}

	lg.librarianID, err = lg.seedUser(ctx, staffRoleID)
	if err != nil {
		return err
	}

	for i := 0; i < lg.config.Borrowers; i++ {
		borrowerID, seedErr := lg.seedUser(ctx, memberRoleID)
		if seedErr != nil {
			return seedErr
		}
		lg.borrowerIDs = append(lg.borrowerIDs, borrowerID)
	}

	log.Printf("Seeded book %s with %d copies and %d borrowers", book.Book.ID, len(lg.copyIDs), len(lg.borrowerIDs))

	return nil
}

func (lg *LoadGenerator) seedRole(ctx context.Context, name string) (uuid.UUID, error) {
	roleID := uuid.New()

	_, err := lg.pool.Exec(ctx,
		`INSERT INTO roles (id, name) VALUES ($1, $2)`,
		roleID.String(), fmt.Sprintf("%s-%s", name, roleID.String()))
	if err != nil {
		return uuid.Nil, fmt.Errorf("seeding role %s: %w", name, err)
	}

	return roleID, nil
}

func (lg *LoadGenerator) seedUser(ctx context.Context, roleID uuid.UUID) (uuid.UUID, error) {
	userID := uuid.New()

	_, err := lg.pool.Exec(ctx,
		`INSERT INTO users (id, full_name, email, is_active, role_id) VALUES ($1, $2, $3, true, $4)`,
		userID.String(),
		"Demo User "+userID.String(),
		userID.String()+"@example.com",
		roleID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("seeding user: %w", err)
	}

	return userID, nil
}

// Start runs the load generation loop until the context is cancelled or Stop is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.requestCount = 0
	lg.conflictCount = 0
	lg.errorCount = 0
	lg.mu.Unlock()

	interval := time.Second / time.Duration(lg.config.Rate)
	lg.ticker = time.NewTicker(interval)
	defer lg.ticker.Stop()

	log.Printf("Load generator starting with %d requests/second (interval: %v), initial goroutines: %d",
		lg.config.Rate, interval, runtime.NumGoroutine())

	// Start metrics reporting goroutine
	lg.wg.Add(1)
	go lg.metricsReporter(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Load generator stopping due to context cancellation")
			return ctx.Err()

		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil

		case <-lg.ticker.C:
			lg.wg.Add(1)
			go lg.executeScenario(ctx)
		}
	}
}

// Stop gracefully shuts down the load generator.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	close(lg.stopChan)

	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logFinalStats()
		return nil
	case <-ctx.Done():
		lg.logFinalStats()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// executeScenario runs a single checkout or return against a random copy.
func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	copyID := lg.copyIDs[rand.Intn(len(lg.copyIDs))]             //nolint:gosec // weak random is acceptable here
	borrowerID := lg.borrowerIDs[rand.Intn(len(lg.borrowerIDs))] //nolint:gosec // weak random is acceptable here

	var err error
	if rand.Intn(2) == 0 { //nolint:gosec // weak random is acceptable here
		_, err = lg.engine.CheckoutBookCopy(opCtx, circulation.CheckoutCommand{
			BorrowerID:  borrowerID,
			LibrarianID: lg.librarianID,
			BookCopyID:  copyID,
		})
	} else {
		_, err = lg.engine.ReturnBookCopy(opCtx, circulation.ReturnCommand{
			BookCopyID: copyID,
		})
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	lg.requestCount++

	switch {
	case err == nil:
		// success
	case isExpectedConflict(err):
		lg.conflictCount++
	default:
		lg.errorCount++
		log.Printf("Scenario error: %v", err)
	}
}

// isExpectedConflict reports whether the error is a normal outcome of
// contending over few copies rather than a failure.
func isExpectedConflict(err error) bool {
	return circulation.Classify(err) == circulation.KindConflict ||
		errors.Is(err, circulation.ErrTransactionExhausted)
}

// metricsReporter logs statistics periodically.
func (lg *LoadGenerator) metricsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logStats("Stats")
		}
	}
}

func (lg *LoadGenerator) logStats(prefix string) {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	conflicts := lg.conflictCount
	errorCount := lg.errorCount
	lg.mu.RUnlock()

	if duration <= 0 || requests == 0 {
		return
	}

	rps := float64(requests) / duration.Seconds()
	conflictRate := float64(conflicts) / float64(requests) * 100
	errorRate := float64(errorCount) / float64(requests) * 100

	log.Printf("%s: %d requests in %v (%.1f req/s), %d conflicts (%.1f%%), %d errors (%.1f%%), %d goroutines",
		prefix, requests, duration.Truncate(time.Second), rps,
		conflicts, conflictRate, errorCount, errorRate, runtime.NumGoroutine())
}

func (lg *LoadGenerator) logFinalStats() {
	lg.logStats("Final Stats")
}
