// forge-probe issues a single GET against a backend URL and reports how
// the response classifies: real JSON, a non-JSON body (the usual sign of
// a proxy or login page sitting in front of the backend), or JSON that
// does not parse.
//
// Exit codes: 0 valid JSON, 1 transport failure, 2 non-JSON body,
// 3 JSON parse failure.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ankiforge/ankiforge/internal/api"
)

func main() {
	url := flag.String("url", api.DefaultBaseURL+"/api/health/anki", "URL to probe")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *url, nil)
	if err != nil {
		fmt.Printf("bad URL: %v\n", err)
		os.Exit(1)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	fmt.Printf("HTTP %d from %s\n", resp.StatusCode, *url)

	var payload json.RawMessage
	err = api.DecodeJSON(resp, &payload)

	var nonJSON *api.NonJSONError
	var bodyErr *api.BodyError
	switch {
	case errors.As(err, &nonJSON):
		fmt.Printf("non-JSON response (content-type %s)\n", nonJSON.ContentType)
		if nonJSON.Head != "" {
			fmt.Printf("body head: %s\n", nonJSON.Head)
		}
		fmt.Println("a proxy or login page is probably answering instead of the backend.")
		os.Exit(2)
	case errors.As(err, &bodyErr):
		fmt.Printf("JSON content type but the body did not parse: %s\n", bodyErr.Message)
		os.Exit(3)
	case err != nil:
		fmt.Printf("decode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("valid JSON (%d bytes)\n", len(payload))
}
