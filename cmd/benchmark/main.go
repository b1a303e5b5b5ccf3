// Benchmark tool for load-testing Cardwise against purchase history data.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/purchases.csv -url http://localhost:8080
//
// This tool:
//  1. Reads purchase data (user_id, amount, merchant, category, and an
//     optional expected_card label)
//  2. Sends each purchase to Cardwise for a recommendation
//  3. Compares the recommended card with the labeled best card
//  4. Reports top-1 accuracy, confidence, latency, and throughput
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Purchase represents a row from the purchase history CSV.
type Purchase struct {
	UserID       string
	Amount       float64
	Merchant     string
	Category     string
	ExpectedCard string
}

// RecommendRequest is the Cardwise API request format.
type RecommendRequest struct {
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant,omitempty"`
	Category string  `json:"category,omitempty"`
}

// RecommendResponse is the subset of the Cardwise response we inspect.
type RecommendResponse struct {
	ID              string  `json:"id"`
	RecommendedCard *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"recommendedCard"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	Matches          int64 // Recommendation equals the labeled best card
	Mismatches       int64 // Recommendation differs from the label
	Unlabeled        int64 // Row carried no expected_card label
	NoRecommendation int64 // Cardwise returned no card

	TotalProcessed int64
	TotalErrors    int64

	// Sums for averages, scaled by 1e6 to stay integral for atomics
	ConfidenceSumMicro int64
	ProcessingTimeMs   int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to purchase history CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Cardwise base URL")
	mode := flag.String("mode", "catalog", "Recommendation mode: held or catalog")
	limit := flag.Int("limit", 10000, "Maximum purchases to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each purchase result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/purchases.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        CARDWISE BENCHMARK - Purchase Recommendations          ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:      %s\n", *csvPath)
	fmt.Printf("Cardwise URL:  %s\n", *baseURL)
	fmt.Printf("Mode:          %s\n", *mode)
	fmt.Printf("Workers:       %d\n", *workers)
	fmt.Printf("Limit:         %d\n", *limit)
	fmt.Println()

	// Check Cardwise is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Cardwise not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Cardwise is running:")
		fmt.Println("  go run cmd/cardwise/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Cardwise is healthy")

	// Read purchase data
	fmt.Printf("\nReading purchases from %s...\n", *csvPath)
	purchases, err := readPurchaseCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d purchases\n", len(purchases))

	labeled := 0
	for _, p := range purchases {
		if p.ExpectedCard != "" {
			labeled++
		}
	}
	fmt.Printf("  - Labeled:   %d (%.2f%%)\n", labeled, 100*float64(labeled)/float64(len(purchases)))
	fmt.Printf("  - Unlabeled: %d\n", len(purchases)-labeled)

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(purchases, *baseURL, *mode, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readPurchaseCSV(path string, limit int) ([]Purchase, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	col := func(record []string, name string) string {
		if i, ok := colIndex[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var purchases []Purchase

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		amount, _ := strconv.ParseFloat(col(record, "amount"), 64)
		if amount < 0 {
			continue
		}

		p := Purchase{
			UserID:       col(record, "user_id"),
			Amount:       amount,
			Merchant:     col(record, "merchant"),
			Category:     col(record, "category"),
			ExpectedCard: col(record, "expected_card"),
		}
		if p.UserID == "" {
			p.UserID = "benchmark-user"
		}

		purchases = append(purchases, p)

		if limit > 0 && len(purchases) >= limit {
			break
		}
	}

	return purchases, nil
}

func runBenchmark(purchases []Purchase, baseURL, mode string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan Purchase, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for p := range work {
				start := time.Now()
				result, err := recommend(client, baseURL, mode, p)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", p.UserID, err)
					}
					continue
				}

				atomic.AddInt64(&metrics.ConfidenceSumMicro, int64(result.Confidence*1e6))

				recommended := ""
				if result.RecommendedCard != nil {
					recommended = result.RecommendedCard.ID
				} else {
					atomic.AddInt64(&metrics.NoRecommendation, 1)
				}

				switch {
				case p.ExpectedCard == "":
					atomic.AddInt64(&metrics.Unlabeled, 1)
				case recommended == p.ExpectedCard:
					atomic.AddInt64(&metrics.Matches, 1)
				default:
					atomic.AddInt64(&metrics.Mismatches, 1)
				}

				if verbose {
					status := "✓"
					if p.ExpectedCard != "" && recommended != p.ExpectedCard {
						status = "✗"
					}
					fmt.Printf("%s %-14s | $%9.2f | %-12s | got: %-24s want: %-24s conf: %.2f\n",
						status,
						p.UserID,
						p.Amount,
						p.Category,
						recommended,
						p.ExpectedCard,
						result.Confidence,
					)
				}
			}
		}()
	}

	// Send work
	for _, p := range purchases {
		work <- p
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func recommend(client *http.Client, baseURL, mode string, p Purchase) (*RecommendResponse, error) {
	req := RecommendRequest{
		Amount:   p.Amount,
		Merchant: p.Merchant,
		Category: p.Category,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := baseURL + "/recommend"
	if mode != "" {
		url += "?mode=" + mode
	}

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", p.UserID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:    %d\n", m.TotalProcessed)
	fmt.Printf("   Errors:             %d\n", m.TotalErrors)
	fmt.Printf("   No Recommendation:  %d\n", m.NoRecommendation)

	labeled := m.Matches + m.Mismatches
	fmt.Printf("\n🎯 RECOMMENDATION QUALITY\n")
	if labeled > 0 {
		accuracy := float64(m.Matches) / float64(labeled)
		fmt.Printf("   Labeled Purchases:  %d\n", labeled)
		fmt.Printf("   Matches:            %d\n", m.Matches)
		fmt.Printf("   Mismatches:         %d\n", m.Mismatches)
		fmt.Printf("   Top-1 Accuracy:     %.4f\n", accuracy)
	} else {
		fmt.Println("   No labeled purchases; accuracy not computed")
	}

	succeeded := m.TotalProcessed - m.TotalErrors
	if succeeded > 0 {
		avgConfidence := float64(m.ConfidenceSumMicro) / 1e6 / float64(succeeded)
		fmt.Printf("   Avg Confidence:     %.4f\n", avgConfidence)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f req/sec\n", tps)
	}

	// Interpretation
	if labeled > 0 {
		accuracy := float64(m.Matches) / float64(labeled)
		fmt.Printf("\n💡 INTERPRETATION\n")
		if accuracy >= 0.9 {
			fmt.Println("   ✅ Excellent agreement with labeled best cards")
		} else if accuracy >= 0.7 {
			fmt.Println("   ⚠️  Good agreement - review mismatched categories")
		} else {
			fmt.Println("   ❌ Low agreement - check catalog and weights")
		}
	}

	fmt.Println()
}
