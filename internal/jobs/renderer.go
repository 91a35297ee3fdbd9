package jobs

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/study-on/billing/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Template names.
const (
	TemplateExpiring = "expiring"
	TemplateReport   = "report"
)

// Renderer renders mail bodies from embedded HTML templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":      titleCase,
		"formatTime": formatTime,
		"formatDate": formatDate,
		"money":      formatMoney,
		"count":      formatCount,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, name := range []string{TemplateExpiring, TemplateReport} {
		filename := fmt.Sprintf("templates/%s.html.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// ExpiringLine is one row of the expiring-rental notice.
type ExpiringLine struct {
	Course    string
	Tier      string
	ExpiresAt *time.Time
}

// ExpiringData is the input of the expiring template.
type ExpiringData struct {
	Lines []ExpiringLine
}

// NewExpiringData builds template input from ledger entries.
func NewExpiringData(transactions []domain.Transaction) ExpiringData {
	data := ExpiringData{Lines: make([]ExpiringLine, 0, len(transactions))}
	for _, t := range transactions {
		line := ExpiringLine{
			Course:    string(t.Type),
			Tier:      "-",
			ExpiresAt: t.ExpiresAt,
		}
		if t.CourseTitle != nil {
			line.Course = *t.CourseTitle
		} else if t.CourseCode != nil {
			line.Course = *t.CourseCode
		}
		if t.CourseTier != nil {
			line.Tier = string(*t.CourseTier)
		}
		data.Lines = append(data.Lines, line)
	}
	return data
}

// RenderExpiring renders the expiring-rental notice.
func (r *Renderer) RenderExpiring(transactions []domain.Transaction) (string, error) {
	return r.render(TemplateExpiring, NewExpiringData(transactions))
}

// RenderReport renders the billing report.
func (r *Renderer) RenderReport(report Report) (string, error) {
	return r.render(TemplateReport, report)
}

func (r *Renderer) render(name string, data interface{}) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Template functions

var (
	titleCaser = cases.Title(language.English)
	printer    = message.NewPrinter(language.English)
)

func titleCase(s string) string {
	return titleCaser.String(s)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("02.01.2006 15:04 UTC")
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02.01.2006")
}

func formatMoney(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}
