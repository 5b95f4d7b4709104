package brief

import (
	"strings"
	"text/template"
)

const summaryPrompt = `You are a cybersecurity analyst writing a threat intelligence note for a Security Operations Center.

Analyze the report below and produce actionable intelligence.

THREAT DETAILS
- Title: {{or .Title "N/A"}}
- Source: {{or .Source "N/A"}}
- Published: {{or .Published "N/A"}}
- Severity: {{or .Severity "N/A"}}
- CVSS Score: {{or .CVSS "N/A"}}
- Summary: {{or .Summary "N/A"}}
- Threat Tags: {{join .Threats ", "}}
- Link: {{or .Link "N/A"}}

Answer in HTML using these sections, each an <h4> heading followed by a short list:
<h4>Threat Overview</h4> two or three sentences for executives.
<h4>Attack Vector</h4> method, entry point and exploited weakness.
<h4>Affected Systems</h4> platforms, industries and asset types at risk.
<h4>Risk Assessment</h4> severity with rationale, exploitability and business impact.
<h4>Recommended Actions</h4> what to do within 24 hours, within a week and long term.
<h4>Indicators of Compromise</h4> technical and behavioral indicators plus detection ideas.

Be concrete. Do not invent indicators that the report does not mention.`

const dailyBriefPrompt = `You are the CISO preparing the daily threat intelligence briefing for senior leadership and the SOC.

BRIEFING DATE: {{.Date}}
TOTAL THREAT REPORTS: {{.TotalThreats}}
SEVERITY BREAKDOWN
- Critical: {{.Severity.Critical}}
- High: {{.Severity.High}}
- Medium: {{.Severity.Medium}}
- Low: {{.Severity.Low}}

TODAY'S REPORTS
{{range .Articles}}
- [{{upper (or .Severity "unknown")}}] {{or .Source "Unknown"}} | CVSS {{or .CVSS "N/A"}}
  {{or .Title "No title"}}
  {{or .Summary "No summary available"}}
  Threats: {{join .Threats ", "}}
{{end}}
Answer in HTML using these sections, each an <h4> heading followed by a short list:
<h4>Executive Summary</h4> the day's landscape in two or three sentences.
<h4>Threat Landscape Analysis</h4> overall risk level, dominant vectors, targeted sectors and notable actors.
<h4>Top 3 Critical Issues</h4> ranked, each with its immediate concern.
<h4>Emerging Trends</h4> new techniques, supply chain and infrastructure risks, zero-day activity.
<h4>Strategic Recommendations</h4> next 24 hours, next week, resourcing and decisions for leadership.
<h4>Key Indicators to Monitor</h4> technical and behavioral indicators worth watching today.
<h4>Stakeholder Actions</h4> IT operations, security teams, business units and executives.

Prioritize by business impact.`

var promptFuncs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
}

var (
	summaryTemplate    = template.Must(template.New("summary").Funcs(promptFuncs).Parse(summaryPrompt))
	dailyBriefTemplate = template.Must(template.New("daily_brief").Funcs(promptFuncs).Parse(dailyBriefPrompt))
)

type dailyBriefData struct {
	Date         string
	TotalThreats int
	Severity     SeverityBreakdown
	Articles     []ArticleInput
}

func renderSummaryPrompt(a ArticleInput) (string, error) {
	var b strings.Builder
	if err := summaryTemplate.Execute(&b, a); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderDailyBriefPrompt(d dailyBriefData) (string, error) {
	var b strings.Builder
	if err := dailyBriefTemplate.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}
