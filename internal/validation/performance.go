// internal/validation/performance.go
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// evaluatePerformance simulates a processing run whose delay scales with
// request complexity, then scores the observed latency, a sampled throughput
// capacity and the serialized payload size. The rubric is intentionally
// non-deterministic; tests pin the random source and the sleep.
func (e *Engine) evaluatePerformance(ctx context.Context, req *models.ValidationRequest) models.RubricResult {
	score := 0
	breakdown := make(map[string]int)
	var issues []string

	// Latency: heavier requests simulate longer processing.
	complexity := 0
	if req.PaymentInformation.PaymentType == "recurring" {
		complexity++
	}
	if req.POSSecure.SecurityLevelIndicator == "authenticated" {
		complexity++
	}
	if len(req.MerchantInformation.CardAcceptorName) > 15 {
		complexity++
	}

	delay := 100*time.Millisecond +
		time.Duration(complexity)*100*time.Millisecond +
		time.Duration(e.random.Float64()*float64(200*time.Millisecond))

	start := time.Now()
	e.sleep(ctx, delay)
	elapsed := time.Since(start)

	var responseTime int
	switch {
	case elapsed < 200*time.Millisecond:
		responseTime = 40
	case elapsed < 400*time.Millisecond:
		responseTime = 30
	case elapsed < 600*time.Millisecond:
		responseTime = 20
	default:
		responseTime = 10
		issues = append(issues, fmt.Sprintf("Slow response time: %.3fs", elapsed.Seconds()))
	}
	score += responseTime
	breakdown["response_time_score"] = responseTime
	breakdown["response_time_ms"] = int(elapsed.Milliseconds())

	// Throughput: sampled concurrent capacity in [50, 200].
	capacity := 50 + e.random.Intn(151)
	var throughput int
	switch {
	case capacity >= 150:
		throughput = 30
	case capacity >= 100:
		throughput = 20
	case capacity >= 75:
		throughput = 15
	default:
		throughput = 10
		issues = append(issues, fmt.Sprintf("Low throughput capacity: %d", capacity))
	}
	score += throughput
	breakdown["throughput_score"] = throughput
	breakdown["concurrent_capacity"] = capacity

	// Memory: payload size proxies allocation pressure.
	payload, _ := json.Marshal(req)
	payloadSize := len(payload)
	efficiency := 100 - payloadSize/50
	if efficiency < 0 {
		efficiency = 0
	}
	var memory int
	switch {
	case efficiency >= 80:
		memory = 30
	case efficiency >= 60:
		memory = 20
	case efficiency >= 40:
		memory = 15
	default:
		memory = 10
		issues = append(issues, fmt.Sprintf("High memory usage indicated by payload size: %d", payloadSize))
	}
	score += memory
	breakdown["memory_score"] = memory
	breakdown["payload_size"] = payloadSize

	return models.RubricResult{
		Score:     clampScore(score),
		MaxScore:  100,
		Breakdown: breakdown,
		Issues:    issues,
	}
}
