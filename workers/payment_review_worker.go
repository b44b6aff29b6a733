// workers/payment_review_worker.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"tournament-arena-system/models"
	"tournament-arena-system/services"
	"tournament-arena-system/utils"
)

// PaymentReviewDecision is one verdict from the external payment reviewers.
type PaymentReviewDecision struct {
	EnrollmentID string               `json:"enrollment_id"`
	Decision     models.PaymentStatus `json:"decision"`
	ReviewedAt   time.Time            `json:"reviewed_at"`
}

// PaymentReviewClient polls the payment review service for decisions and
// applies them through the enrollment service's terminal transition.
type PaymentReviewClient struct {
	BaseURL     string
	Token       string
	HTTPClient  *http.Client
	Enrollments *services.EnrollmentService
}

func NewPaymentReviewClient(enrollments *services.EnrollmentService) *PaymentReviewClient {
	baseURL := os.Getenv("PAYMENT_REVIEW_URL")
	if baseURL == "" {
		log.Fatal("PAYMENT_REVIEW_URL environment variable is required")
	}
	token := os.Getenv("ARENA_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("ARENA_SERVICE_TOKEN environment variable is required for payment review sync")
	}

	return &PaymentReviewClient{
		BaseURL:     baseURL,
		Token:       token,
		HTTPClient:  utils.HTTPClient,
		Enrollments: enrollments,
	}
}

// GetDecisions fetches verdicts issued since the given time.
func (c *PaymentReviewClient) GetDecisions(ctx context.Context, since time.Time) ([]PaymentReviewDecision, error) {
	finalURL, err := buildSyncURL(c.BaseURL, "/api/v1/payment-reviews", since)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment review service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("payment review service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Reviews []PaymentReviewDecision `json:"reviews"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode payment review response: %w", err)
	}
	return response.Reviews, nil
}

// PollPaymentReviews applies reviewer decisions on an interval. A decision
// that fails to apply is logged and retried on the next window; decisions
// already applied (e.g., via the admin endpoint) are skipped quietly.
func PollPaymentReviews(ctx context.Context, client *PaymentReviewClient, pollInterval time.Duration) {
	log.Println("Starting payment review polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Payment review polling stopped.")
			return
		case <-ticker.C:
			windowStart := time.Now().UTC()

			reviews, err := client.GetDecisions(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling payment reviews: %v", err)
				continue
			}
			if len(reviews) == 0 {
				continue
			}
			log.Printf("📥 Received %d payment review decision(s).", len(reviews))

			failed := 0
			for _, review := range reviews {
				_, err := client.Enrollments.ReviewPayment(review.EnrollmentID, review.Decision)
				if err == nil {
					continue
				}
				// Already-terminal enrollments mean the decision landed
				// through another path; everything else is retried.
				if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrNotFound) {
					log.Printf("⚠️ Skipping review for enrollment %s: %v", review.EnrollmentID, err)
					continue
				}
				log.Printf("❌ Failed to apply review for enrollment %s: %v", review.EnrollmentID, err)
				failed++
			}

			if failed > 0 {
				// Keep the window so failed decisions are retried next tick
				continue
			}
			lastSyncTime = windowStart
		}
	}
}
