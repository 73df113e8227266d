// Package agrigatectl implements the operator CLI. Every command is a
// thin wrapper over one API endpoint; the exit code follows the HTTP
// status, so a failed invocation that comes back 200 with an error table
// still exits 0 and prints the envelope for inspection.
package agrigatectl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("agrigatectl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "Agrigate API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	commandArgs := fs.Args()[1:]

	method := ""
	path := ""
	var body []byte
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "target":
		method, path = http.MethodGet, "/v1/target"
	case "history":
		limit, err := parseHistoryFlags(commandArgs, stderr)
		if err != nil {
			return 2
		}
		method, path = http.MethodGet, "/v1/history"
		if limit > 0 {
			path += "?limit=" + strconv.Itoa(limit)
		}
	case "retention-run":
		method, path = http.MethodPost, "/v1/retention/run"
	case "invoke":
		request, err := parseInvokeFlags(commandArgs, stderr)
		if err != nil {
			return 2
		}
		encoded, err := json.Marshal(request)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
			return 1
		}
		method, path, body = http.MethodPost, "/v1/datafunction", encoded
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, *apiKey, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

type invokeRequest struct {
	Crop      string `json:"crop"`
	Region    string `json:"region"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Invoke flags are passed through unvalidated. Missing inputs come back
// as the service's error table, which is the behavior worth exercising
// from the CLI.
func parseInvokeFlags(args []string, stderr io.Writer) (invokeRequest, error) {
	fs := flag.NewFlagSet("agrigatectl invoke", flag.ContinueOnError)
	fs.SetOutput(stderr)

	crop := fs.String("crop", "", "crop name, e.g. wheat")
	region := fs.String("region", "", "region name, e.g. north")
	startDate := fs.String("start-date", "", "inclusive start date, YYYY-MM-DD")
	endDate := fs.String("end-date", "", "inclusive end date, YYYY-MM-DD")

	if err := fs.Parse(args); err != nil {
		return invokeRequest{}, err
	}
	return invokeRequest{
		Crop:      *crop,
		Region:    *region,
		StartDate: *startDate,
		EndDate:   *endDate,
	}, nil
}

func parseHistoryFlags(args []string, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("agrigatectl history", flag.ContinueOnError)
	fs.SetOutput(stderr)

	limit := fs.Int("limit", 0, "row cap, server default when omitted")

	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	return *limit, nil
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, body []byte) (int, []byte, error) {
	var payload io.Reader
	if len(body) > 0 {
		payload = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: agrigatectl [flags] <command> [command flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health           GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready            GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  target           GET /v1/target")
	_, _ = fmt.Fprintln(w, "  history          GET /v1/history (-limit N)")
	_, _ = fmt.Fprintln(w, "  retention-run    POST /v1/retention/run")
	_, _ = fmt.Fprintln(w, "  invoke           POST /v1/datafunction (-crop -region -start-date -end-date)")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
