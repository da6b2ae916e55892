// Command evaluate runs the transcript evaluation corpus against a running
// server and reports detection metrics. Exit code 0 means perfect binary
// accuracy (scam vs not-scam); anything less exits 1.
package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var scenariosYAML []byte

// Scenario is one labeled transcript in the corpus.
type Scenario struct {
	ID         string `yaml:"id"`
	Category   string `yaml:"category"`
	Expected   string `yaml:"expected"`
	Transcript string `yaml:"transcript"`
}

// outcome is what one scenario run produced.
type outcome struct {
	scenario    Scenario
	score       float64
	verdict     string
	binaryMatch bool
	exactMatch  bool
	err         error
}

// analyzeResponse is the subset of the report we inspect.
type analyzeResponse struct {
	CombinedScore float64 `json:"combined_score"`
	TextAnalysis  *struct {
		Verdict string `json:"verdict"`
	} `json:"text_analysis"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	apiKey := flag.String("api-key", "", "API key sent as X-API-Key")
	delay := flag.Duration("delay", 0, "pause between requests")
	flag.Parse()

	var scenarios []Scenario
	if err := yaml.Unmarshal(scenariosYAML, &scenarios); err != nil {
		fmt.Fprintln(os.Stderr, "error: bad scenario corpus:", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	outcomes := make([]outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		out := runScenario(client, *baseURL, *apiKey, sc)
		outcomes = append(outcomes, out)

		status := "OK  "
		if !out.binaryMatch {
			status = "MISS"
		}
		fmt.Printf("%s %-4s score=%.2f verdict=%-12s expected=%s\n",
			status, sc.ID, out.score, out.verdict, sc.Expected)

		if *delay > 0 {
			time.Sleep(*delay)
		}
	}

	os.Exit(printSummary(outcomes))
}

// isPositive reduces the four-level verdict to a binary detection.
func isPositive(verdict string) bool {
	return verdict != "SAFE"
}

func runScenario(client *http.Client, baseURL, apiKey string, sc Scenario) outcome {
	out := outcome{scenario: sc, verdict: "ERROR"}

	payload, err := json.Marshal(map[string]string{"transcript": sc.Transcript})
	if err != nil {
		out.err = err
		return out
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/analyze/transcript", bytes.NewReader(payload))
	if err != nil {
		out.err = err
		return out
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		out.err = err
		return out
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.err = err
		return out
	}
	if resp.StatusCode != http.StatusOK {
		out.err = fmt.Errorf("HTTP %d: %.120s", resp.StatusCode, body)
		return out
	}

	var report analyzeResponse
	if err := json.Unmarshal(body, &report); err != nil {
		out.err = err
		return out
	}
	if report.TextAnalysis == nil {
		out.err = fmt.Errorf("response has no text_analysis")
		return out
	}

	out.score = report.CombinedScore
	out.verdict = report.TextAnalysis.Verdict
	out.binaryMatch = isPositive(out.verdict) == isPositive(sc.Expected)
	out.exactMatch = out.verdict == sc.Expected
	return out
}

func printSummary(outcomes []outcome) int {
	var binaryCorrect, exactCorrect int
	var tp, fn, tn, fp int
	var failures []outcome

	for _, out := range outcomes {
		if out.err != nil {
			failures = append(failures, out)
		}
		if out.binaryMatch {
			binaryCorrect++
		}
		if out.exactMatch {
			exactCorrect++
		}
		if isPositive(out.scenario.Expected) {
			if out.binaryMatch {
				tp++
			} else {
				fn++
			}
		} else {
			if out.binaryMatch {
				tn++
			} else {
				fp++
			}
		}
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tEXPECTED\tSCORE\tACTUAL\tBINARY\tEXACT")
	for _, out := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
			out.scenario.ID, out.scenario.Category, out.scenario.Expected,
			out.score, out.verdict, mark(out.binaryMatch), mark(out.exactMatch))
	}
	w.Flush()

	total := len(outcomes)
	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	fmt.Println()
	fmt.Printf("Binary accuracy:     %d/%d = %.1f%%\n", binaryCorrect, total, 100*ratio(binaryCorrect, total))
	fmt.Printf("4-class exact match: %d/%d = %.1f%%\n", exactCorrect, total, 100*ratio(exactCorrect, total))
	fmt.Printf("Precision: %.2f  Recall: %.2f  F1: %.2f\n", precision, recall, f1)
	fmt.Printf("Confusion: TP=%d FN=%d FP=%d TN=%d\n", tp, fn, fp, tn)

	if len(failures) > 0 {
		fmt.Println("\nErrors:")
		for _, out := range failures {
			fmt.Printf("  %s: %v\n", out.scenario.ID, out.err)
		}
	}

	if binaryCorrect == total {
		return 0
	}
	return 1
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
