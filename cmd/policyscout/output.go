package main

import (
	"encoding/json"
	"fmt"
	"io"

	"policyscout"
)

// resultJSON is the machine-readable discovery report.
type resultJSON struct {
	Found     bool   `json:"found"`
	SourceURL string `json:"source_url,omitempty"`
	Tier      string `json:"tier,omitempty"`
	Score     int    `json:"score,omitempty"`
	Origin    string `json:"origin,omitempty"`
	Rendered  bool   `json:"rendered,omitempty"`
	Text      string `json:"text,omitempty"`
}

func writeJSON(w io.Writer, result *policyscout.Result) error {
	report := resultJSON{Found: result.Status == policyscout.StatusFound}
	if report.Found {
		report.SourceURL = result.SourceURL
		report.Tier = result.Tier.String()
		report.Score = result.Score
		report.Origin = result.Origin.String()
		report.Rendered = result.Rendered
		report.Text = result.Text
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeText(w io.Writer, result *policyscout.Result) error {
	if result.Status != policyscout.StatusFound {
		return fmt.Errorf("no privacy policy found")
	}

	fmt.Fprintf(w, "# %s (%s, score %d)\n\n", result.SourceURL, result.Tier, result.Score)
	fmt.Fprintln(w, result.Text)
	return nil
}
