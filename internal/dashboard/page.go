package dashboard

import (
	"time"

	"stockdash/internal/chart"
	"stockdash/internal/model"
	"stockdash/internal/summary"
)

// Page sections.
const (
	SectionOverview = "overview"
	SectionChart    = "chart"
	SectionSummary  = "summary"
	SectionHistory  = "history"
)

// Sections lists every page section in display order.
var Sections = []string{SectionOverview, SectionChart, SectionSummary, SectionHistory}

// Request selects what one render pass shows.
type Request struct {
	Symbol     string
	Period     string
	Indicators bool
}

// SectionError records why one section of a page could not be rendered.
type SectionError struct {
	Section string `json:"section"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *SectionError) Error() string { return e.Section + ": " + e.Message }

func (e *SectionError) Unwrap() error { return e.Err }

// SummaryView is the latest-bar summary in both orientations.
type SummaryView struct {
	Row  summary.SummaryRow `json:"row"`
	Rows []summary.Cell     `json:"rows"`
}

// Page is the result of one render pass. Sections that failed are nil and
// have a matching entry in Errors.
type Page struct {
	Symbol      string             `json:"symbol"`
	Period      model.Period       `json:"period"`
	PeriodLabel string             `json:"period_label"`
	Company     *model.CompanyInfo `json:"company"`

	Overview *[summary.Slots][]summary.Metric `json:"overview"`
	Chart    *chart.Figure                    `json:"chart"`
	Summary  *SummaryView                     `json:"summary"`
	History  []summary.DownloadRow            `json:"history"`

	Errors     []SectionError `json:"errors"`
	RenderedAt time.Time      `json:"rendered_at"`
	TraceID    string         `json:"trace_id,omitempty"`
}

// Failed reports whether section has an error on the page.
func (p *Page) Failed(section string) bool {
	for _, e := range p.Errors {
		if e.Section == section {
			return true
		}
	}
	return false
}

// Download is an exported history file.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}
