package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"threatfeed/internal/config"
	"threatfeed/internal/domain/entity"
	"threatfeed/internal/infra/feedparser"
	"threatfeed/internal/infra/fetcher"
	fetchUC "threatfeed/internal/usecase/fetch"
)

// SourceResult is the diagnosis of one feed source.
type SourceResult struct {
	Source     string `json:"source"`
	URL        string `json:"url"`
	OK         bool   `json:"ok"`
	Articles   int    `json:"articles"`
	FirstTitle string `json:"first_title,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Report is the diagnosis of every configured source.
type Report struct {
	Results    []SourceResult `json:"results"`
	Successful int            `json:"successful_feeds"`
	Total      int            `json:"total_feeds"`
	DurationMS int64          `json:"duration_ms"`
}

func feedsCmd() *cobra.Command {
	defaults := fetchUC.DiagnosticOptions()

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Fetch and parse every configured feed and report per-source status",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			asJSON, _ := cmd.Flags().GetBool("json")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			retries, _ := cmd.Flags().GetInt("retries")

			sources, err := config.LoadFeeds(path)
			if err != nil {
				return err
			}

			fetchCfg, err := fetcher.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			fetchCfg.Timeout = timeout
			fetchCfg.MaxRetries = retries
			if err := fetchCfg.Validate(); err != nil {
				return err
			}

			svc := fetchUC.NewService(fetcher.New(fetchCfg), feedparser.New(),
				fetchUC.WithFetchOptions(fetchUC.FetchOptions{Timeout: timeout, MaxRetries: retries}))

			report, err := diagnose(cmd.Context(), svc, sources)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON instead of text")
	cmd.Flags().Duration("timeout", defaults.Timeout, "Timeout per HTTP attempt")
	cmd.Flags().Int("retries", defaults.MaxRetries, "Extra attempts after a failed fetch")
	return cmd
}

// diagnose aggregates sources once and converts the per-source reports.
func diagnose(ctx context.Context, svc *fetchUC.Service, sources []entity.FeedSource) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := svc.AggregateAll(ctx, sources)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Results:    make([]SourceResult, 0, len(res.Reports)),
		Successful: res.SuccessfulCount,
		Total:      res.TotalCount,
		DurationMS: res.Duration.Milliseconds(),
	}
	for _, r := range res.Reports {
		sr := SourceResult{
			Source:     r.Source.Name,
			URL:        r.Source.URL,
			OK:         r.OK(),
			Articles:   len(r.Articles),
			DurationMS: r.Duration.Milliseconds(),
		}
		if len(r.Articles) > 0 {
			sr.FirstTitle = r.Articles[0].Title
		}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		} else if !r.OK() {
			sr.Error = "no articles found"
		}
		report.Results = append(report.Results, sr)
	}
	return report, nil
}

func printReport(w io.Writer, report Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, r := range report.Results {
		status := "OK  "
		if !r.OK {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-24s %3d articles  %6s  %s\n",
			status, r.Source, r.Articles, time.Duration(r.DurationMS)*time.Millisecond, r.URL)
		if r.FirstTitle != "" {
			fmt.Fprintf(w, "       first: %s\n", r.FirstTitle)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", r.Error)
		}
	}
	fmt.Fprintf(w, "\n%d/%d feeds working (%s)\n",
		report.Successful, report.Total, time.Duration(report.DurationMS)*time.Millisecond)
	return nil
}
