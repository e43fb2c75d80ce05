package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"shopfront/internal/model"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

// Templates renders notification bodies, one template per kind.
type Templates struct {
	byKind map[Kind]*template.Template
}

// DefaultTemplates returns the templates compiled into the binary.
func DefaultTemplates() (*Templates, error) {
	t := &Templates{byKind: make(map[Kind]*template.Template, len(Kinds))}
	for _, kind := range Kinds {
		body, err := defaultTemplates.ReadFile("templates/" + TemplateName(kind))
		if err != nil {
			return nil, fmt.Errorf("failed to read default template %s: %w", kind, err)
		}
		if err := t.Override(kind, body); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TemplateName is the file or object name holding the body for kind.
func TemplateName(kind Kind) string {
	return string(kind) + ".html"
}

// Override replaces the body template for kind.
func (t *Templates) Override(kind Kind, body []byte) error {
	tmpl, err := template.New(string(kind)).Funcs(funcs).Parse(string(body))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", kind, err)
	}
	t.byKind[kind] = tmpl
	return nil
}

// Subject returns the email subject for kind.
func Subject(kind Kind, order *model.Order) string {
	switch kind {
	case KindOrderConfirmation:
		return fmt.Sprintf("Order Confirmation - Order #%s", ShortID(order))
	case KindOrderShipped:
		return fmt.Sprintf("Your Order Has Shipped - Order #%s", ShortID(order))
	case KindOrderDelivered:
		return fmt.Sprintf("Your Order Has Been Delivered - Order #%s", ShortID(order))
	default:
		return fmt.Sprintf("Order #%s", ShortID(order))
	}
}

// Render builds the message for kind about order.
func (t *Templates) Render(kind Kind, order *model.Order) (Message, error) {
	tmpl, ok := t.byKind[kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for notification kind %q", kind)
	}

	data := struct {
		Order   *model.Order
		ShortID string
	}{
		Order:   order,
		ShortID: ShortID(order),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", kind, err)
	}

	return Message{
		Kind:     kind,
		To:       Recipient(order),
		Subject:  Subject(kind, order),
		HTMLBody: buf.String(),
	}, nil
}
