// Package main provides a CLI command that drives the fetch engine
// against a single URL and prints the resulting response.
// Usage: fetchctl [--mode cors] [--output json] "https://example.com"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"fetchcore/internal/fetch"
	"fetchcore/internal/fetch/cache/memory"
	"fetchcore/internal/fetch/connector"
	"fetchcore/pkg/security/csp"
)

// fetchOutput is the JSON output shape for a completed fetch.
type fetchOutput struct {
	URL          string              `json:"url"`
	Status       int                 `json:"status"`
	ResponseType string              `json:"response_type"`
	Headers      map[string][]string `json:"headers"`
	BodyPreview  string              `json:"body_preview"`
}

func main() {
	var (
		mode         string
		outputFormat string
		timeout      time.Duration
		configPath   string
	)

	flag.StringVar(&mode, "mode", "no-cors", "request mode: same-origin, cors, no-cors")
	flag.StringVar(&outputFormat, "output", "text", "output format: text or json")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall fetch timeout")
	flag.StringVar(&configPath, "config", "", "path to a YAML fetch engine config file (its request timeout replaces --timeout for the connector; --timeout still bounds the whole fetch)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: URL is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, `Usage: fetchctl [--mode cors] [--output json] "https://example.com"`)
		os.Exit(1)
	}

	logger := initLogger()

	target, err := url.Parse(args[0])
	if err != nil {
		logger.Error("invalid URL", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: invalid URL: %v\n", err)
		os.Exit(1)
	}

	cfg := fetch.DefaultConfig()
	cfg.RequestTimeout = timeout

	if configPath != "" {
		loaded, err := fetch.LoadConfigFromFile(configPath)
		if err != nil {
			logger.Error("failed to load config file", slog.Any("error", err))
			os.Exit(1)
		}
		cfg = loaded
	}

	engine := fetch.NewEngine(
		connector.NewHTTPConnector(cfg.RequestTimeout),
		memory.New(),
		fetch.NewCORSCache(),
		cfg,
	)

	sweeper, err := engine.StartCORSCacheSweeper(logger, cfg.CORSCacheSweepInterval)
	if err != nil {
		logger.Error("failed to start cors cache sweeper", slog.Any("error", err))
		os.Exit(1)
	}
	defer sweeper.Stop()

	// fetchctl acts as its own first-party context fetching target: its
	// origin is set to target's own origin so the response comes back
	// unfiltered (Basic) by default instead of opaque, which would hide
	// status and body from a CLI user the way a browser hides them from
	// cross-origin script.
	origin := fetch.Origin{Kind: fetch.OriginTuple, Scheme: target.Scheme, Host: target.Hostname(), Port: target.Port()}
	req := fetch.NewRequest(target, origin, false)
	req.Mode = parseMode(mode)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp := engine.FetchSynchronous(ctx, req)
	if resp.IsNetworkError() {
		fmt.Fprintln(os.Stderr, "Error: fetch resulted in a network error")
		os.Exit(1)
	}

	preview := string(resp.Body.Bytes())
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}

	// policy is computed to exercise the CSP builder when rendering a
	// fetched page in a local preview; fetchctl doesn't actually serve
	// HTML, but an embedder that does would attach Build() as the
	// Content-Security-Policy response header.
	policy := csp.FetchPreviewPolicy(req.Origin.ASCIISerialization())
	logger.Debug("computed preview CSP", slog.String("policy", policy.Build()))

	if outputFormat == "json" {
		outputJSON(target.String(), resp, preview)
	} else {
		outputText(target.String(), resp, preview)
	}
}

func parseMode(s string) fetch.Mode {
	switch s {
	case "same-origin":
		return fetch.ModeSameOrigin
	case "cors":
		return fetch.ModeCORS
	default:
		return fetch.ModeNoCORS
	}
}

func outputText(targetURL string, resp *fetch.Response, preview string) {
	fmt.Printf("URL: %s\n", targetURL)
	fmt.Printf("Status: %d\n", resp.Status)
	fmt.Printf("Response type: %s\n", resp.ResponseType)
	fmt.Printf("Headers:\n")
	for name, values := range resp.Headers {
		fmt.Printf("  %s: %v\n", name, values)
	}
	fmt.Printf("Body preview:\n%s\n", preview)
}

func outputJSON(targetURL string, resp *fetch.Response, preview string) {
	output := fetchOutput{
		URL:          targetURL,
		Status:       resp.Status,
		ResponseType: resp.ResponseType.String(),
		Headers:      map[string][]string(resp.Headers),
		BodyPreview:  preview,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}
