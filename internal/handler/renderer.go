package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"landing", "signup", "signup_success", "login", "admin"}

// Renderer renders the embedded pages through the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page once
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// action is the single button offered for an order
type action struct {
	Status model.OrderStatus
	Label  string
}

func nextAction(s model.OrderStatus) *action {
	next, ok := lifecycle.Next(s)
	if !ok {
		return nil
	}
	label := "Mark as paid"
	if next == model.StatusAwaitingPayment {
		label = "Request payment"
	}
	return &action{Status: next, Label: label}
}

// money formats an amount the way the owners read it, e.g. R$ 1234,50
func money(v float64) string {
	return "R$ " + strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

func clock(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Local().Format("02/01 15:04")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Local().Format("02/01 15:04")
	}
	return ""
}

var funcs = template.FuncMap{
	"money": money,
	"clock": clock,
	"next":  nextAction,
}
