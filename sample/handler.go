// Package handlers is a small rex application whose templates the analyzer
// can discover and validate:
//
//	go run ./analyzer -dir ./sample -validate
package handlers

import (
	"fmt"

	"github.com/abiiranathan/rex"
	"github.com/expr-lang/expr"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	markup "github.com/abiiranathan/go-markup"
	"github.com/abiiranathan/go-markup/evaluator"
)

// Breadcrumb represents a navigation breadcrumb
type Breadcrumb struct {
	Label  string
	URL    string
	IsLast bool
}

// Drug represents a billed drug
type Drug struct {
	Name     string // Drug Name
	Quantity int
	Price    float64
}

// Visit represents a patient visit
type Visit struct {
	ID      uint
	Patient string
	Drugs   []Drug
}

var printer = message.NewPrinter(language.English)

// money formats an amount in shillings with thousands separators.
func money(params ...any) (any, error) {
	amount, ok := params[0].(float64)
	if !ok {
		return nil, fmt.Errorf("money: want float64, got %T", params[0])
	}
	return printer.Sprintf("UGX %.0f", amount), nil
}

var helpers = evaluator.New(
	expr.Function("money", money, new(func(float64) string)),
)

const breadcrumbs = `nav.breadcrumbs {
	@for b in breadcrumbs {
		@if b.IsLast {
			span { (b.Label) }
		} @else {
			a href=(b.URL) { (b.Label) } " / "
		}
	}
}`

var chart = must(markup.Options{Name: "treatment-chart", Evaluator: helpers}.Compile(breadcrumbs + `
div.chart {
	h1 { (title) }
	@if len(visit.Drugs) == 0 {
		p.empty { "No drugs billed." }
	} @else {
		table {
			tr { th { "Drug" } th { "Qty" } th { "Price" } }
			@for d in visit.Drugs {
				tr.row.low[d.Quantity < 5] {
					td { (d.Name) }
					td { (d.Quantity) }
					td { (money(d.Price)) }
				}
			}
		}
	}
}`))

var notFound = markup.MustCompile(`p.not-found { "No visit " (id) }`)

func must(t *markup.Template, err error) *markup.Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Handler holds service dependencies
type Handler struct {
	Visits map[uint]Visit
}

// Routes registers the handler's pages.
func (h *Handler) Routes() *rex.Router {
	r := rex.NewRouter()
	r.GET("/visits/{id}/chart", h.TreatmentChart)
	return r
}

// TreatmentChart renders the billed drugs of a visit.
func (h *Handler) TreatmentChart(c *rex.Context) error {
	c.Response.Header().Set("Content-Type", "text/html; charset=utf-8")

	var id uint
	if _, err := fmt.Sscan(c.Request.PathValue("id"), &id); err != nil {
		return notFound.Execute(c.Response, map[string]any{"id": c.Request.PathValue("id")})
	}
	visit, ok := h.Visits[id]
	if !ok {
		return notFound.Execute(c.Response, map[string]any{"id": id})
	}

	return chart.Execute(c.Response, map[string]any{
		"title": "Treatment Chart",
		"visit": visit,
		"breadcrumbs": []Breadcrumb{
			{Label: "Visits", URL: "/visits"},
			{Label: visit.Patient, URL: fmt.Sprintf("/visits/%d", visit.ID)},
			{Label: "Treatment Chart", IsLast: true},
		},
	})
}
