package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type punch struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// dayFor builds a plausible day whose first entry is shifted by i minutes,
// so the load spreads over on-time, late and short days.
func dayFor(i int) []byte {
	base := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC).Add(time.Duration(i%45) * time.Minute)
	body, _ := json.Marshal(map[string][]punch{"punches": {
		{base, "ENTRY"},
		{base.Add(4 * time.Hour), "EXIT"},
		{base.Add(5 * time.Hour), "ENTRY"},
		{base.Add(10 * time.Hour), "EXIT"},
	}})
	return body
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/v1/worklogs/calculate", "calculate endpoint")
	total := flag.Int("requests", 10000, "number of requests")
	concurrency := flag.Int("concurrency", 50, "requests in flight")
	flag.Parse()

	fmt.Printf("Starting load test: %d requests to %s with concurrency %d\n", *total, *url, *concurrency)

	client := &http.Client{Timeout: 10 * time.Second}
	var successCount, failCount int64

	var g errgroup.Group
	g.SetLimit(*concurrency)

	startTime := time.Now()
	for i := 0; i < *total; i++ {
		g.Go(func() error {
			resp, err := client.Post(*url, "application/json", bytes.NewReader(dayFor(i)))
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return nil
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				atomic.AddInt64(&successCount, 1)
			} else {
				atomic.AddInt64(&failCount, 1)
			}
			return nil
		})
	}
	_ = g.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", *total)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(*total)/duration.Seconds())
}
