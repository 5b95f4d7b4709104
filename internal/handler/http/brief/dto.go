package brief

import (
	"encoding/json"
	"strconv"
	"strings"

	briefUC "threatfeed/internal/usecase/brief"
	"threatfeed/internal/utils/timeutil"
)

// Score accepts a JSON string or number. The dashboard sends CVSS either way.
type Score string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Score(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// ArticleDTO is an article submitted for summarization.
type ArticleDTO struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Link      string   `json:"link"`
	Source    string   `json:"source"`
	Published string   `json:"published"`
	Severity  string   `json:"severity"`
	CVSS      Score    `json:"cvss"`
	Threats   []string `json:"threats"`
}

func (a ArticleDTO) toInput() briefUC.ArticleInput {
	return briefUC.ArticleInput{
		ID:        strings.TrimSpace(a.ID),
		Title:     a.Title,
		Summary:   a.Summary,
		Link:      a.Link,
		Source:    a.Source,
		Published: a.Published,
		Severity:  a.Severity,
		CVSS:      string(a.CVSS),
		Threats:   a.Threats,
	}
}

// SeverityDTO is the optional per-severity article count.
type SeverityDTO struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// DailyBriefRequest is the body of POST /api/daily-brief.
type DailyBriefRequest struct {
	Articles          []ArticleDTO `json:"articles"`
	Date              string       `json:"date"`
	TotalThreats      *int         `json:"total_threats"`
	SeverityBreakdown SeverityDTO  `json:"severity_breakdown"`
}

func (r DailyBriefRequest) toInput() briefUC.DailyBriefRequest {
	// A missing or null "articles" stays nil.
	var articles []briefUC.ArticleInput
	if r.Articles != nil {
		articles = make([]briefUC.ArticleInput, len(r.Articles))
	}
	for i, a := range r.Articles {
		articles[i] = a.toInput()
	}
	return briefUC.DailyBriefRequest{
		Articles:     articles,
		Date:         r.Date,
		TotalThreats: r.TotalThreats,
		Severity: briefUC.SeverityBreakdown{
			Critical: r.SeverityBreakdown.Critical,
			High:     r.SeverityBreakdown.High,
			Medium:   r.SeverityBreakdown.Medium,
			Low:      r.SeverityBreakdown.Low,
		},
	}
}

// GenerationResponse is the body of a successful summary or brief.
type GenerationResponse struct {
	Summary     string `json:"summary"`
	Cached      bool   `json:"cached"`
	GeneratedAt string `json:"generated_at"`

	// GenerationTime is the provider latency in seconds.
	GenerationTime float64 `json:"generation_time"`

	// Date is set for daily briefs only.
	Date string `json:"date,omitempty"`
}

func toGenerationResponse(res briefUC.Result) GenerationResponse {
	return GenerationResponse{
		Summary:        res.Text,
		Cached:         res.Cached,
		GeneratedAt:    timeutil.Format(res.GeneratedAt),
		GenerationTime: res.GenerationTime.Seconds(),
		Date:           res.Date,
	}
}

// CacheEntryDTO describes one cached text.
type CacheEntryDTO struct {
	ArticleID      string  `json:"article_id"`
	Timestamp      string  `json:"timestamp"`
	GenerationTime float64 `json:"generation_time"`
	IsValid        bool    `json:"is_valid"`
}

// CacheStatsResponse is the body of GET /api/cache/stats.
type CacheStatsResponse struct {
	TotalEntries     int             `json:"total_entries"`
	CacheExpiryHours float64         `json:"cache_expiry_hours"`
	Entries          []CacheEntryDTO `json:"entries"`
}

// CacheClearResponse is the body of POST /api/cache/clear.
type CacheClearResponse struct {
	Message      string `json:"message"`
	ClearedCount int    `json:"cleared_count"`
}
