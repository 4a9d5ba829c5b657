// Command smoke drives a running snapsell server through a full workflow
// pass: create a session, submit a photo, inspect the generated listing
// and publish it. Useful for manual end-to-end checks during development.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/lithammer/dedent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usageText = `
	smoke -image <path> [-addr <url>] [-marketplaces ebay,etsy]

	Runs one full workflow pass against a running snapsell server:
	session create, photo submit, preview, marketplace selection, publish.`

type sessionState struct {
	Success bool `json:"success"`
	Session struct {
		ID    string `json:"id"`
		Step  string `json:"step"`
		Items []struct {
			ID         string   `json:"id"`
			Name       string   `json:"name"`
			Price      int      `json:"price"`
			Condition  string   `json:"condition"`
			Keywords   []string `json:"keywords"`
			ObjectType string   `json:"objectType"`
			Status     string   `json:"status"`
		} `json:"items"`
		Notices []struct {
			Level string `json:"level"`
			Text  string `json:"text"`
		} `json:"notices"`
	} `json:"session"`
}

type publishResult struct {
	Success bool `json:"success"`
	Item    struct {
		Name        string `json:"name"`
		PostResults []struct {
			Marketplace string `json:"marketplace"`
			Success     bool   `json:"success"`
			Message     string `json:"message"`
			ListingURL  string `json:"listingUrl"`
		} `json:"postResults"`
	} `json:"item"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := flag.String("addr", "http://localhost:4000", "snapsell server base URL")
	imagePath := flag.String("image", "", "path to an item photo (jpeg/png/webp)")
	marketplaces := flag.String("marketplaces", "ebay,etsy", "comma-separated marketplaces to publish to")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(dedent.Dedent(usageText)))
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	client := resty.New().SetBaseURL(*addr)

	// Create a session.
	var created struct {
		Success   bool   `json:"success"`
		SessionID string `json:"sessionId"`
	}
	resp, err := client.R().SetResult(&created).Post("/api/session")
	if err != nil || !created.Success {
		log.Fatal().Err(err).Str("status", resp.Status()).Msg("failed to create session")
	}
	log.Info().Str("session", created.SessionID).Msg("session created")

	// Submit the photo; the server runs the whole generation pipeline
	// before responding.
	var state sessionState
	resp, err = client.R().
		SetFile("photos", *imagePath).
		SetResult(&state).
		Post(fmt.Sprintf("/api/session/%s/photos", created.SessionID))
	if err != nil || resp.IsError() {
		log.Fatal().Err(err).Str("status", resp.Status()).Str("body", string(resp.Body())).Msg("photo submission failed")
	}
	if len(state.Session.Items) == 0 {
		log.Fatal().Msg("no item created from photo")
	}
	item := state.Session.Items[0]
	log.Info().
		Str("name", item.Name).
		Str("objectType", item.ObjectType).
		Str("condition", item.Condition).
		Int("price", item.Price).
		Strs("keywords", item.Keywords).
		Str("status", item.Status).
		Msg("listing generated")

	// Advance to marketplace selection.
	resp, err = client.R().SetResult(&state).Post(fmt.Sprintf("/api/session/%s/next", created.SessionID))
	if err != nil || resp.IsError() {
		log.Fatal().Err(err).Str("status", resp.Status()).Msg("failed to advance workflow")
	}

	// Publish.
	selected := strings.Split(*marketplaces, ",")
	var published publishResult
	resp, err = client.R().
		SetBody(map[string]any{"marketplaces": selected}).
		SetResult(&published).
		Post(fmt.Sprintf("/api/session/%s/publish", created.SessionID))
	if err != nil || resp.IsError() {
		log.Fatal().Err(err).Str("status", resp.Status()).Str("body", string(resp.Body())).Msg("publish failed")
	}

	for _, result := range published.Item.PostResults {
		event := log.Info()
		if !result.Success {
			event = log.Warn()
		}
		event.
			Str("marketplace", result.Marketplace).
			Bool("success", result.Success).
			Str("listingUrl", result.ListingURL).
			Msg(result.Message)
	}
	log.Info().Msg("workflow pass complete")
}
