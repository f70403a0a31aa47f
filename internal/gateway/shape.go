package gateway

import (
	"fmt"
	"strings"

	"github.com/set-night/citycopilot/internal/config"
	"github.com/set-night/citycopilot/internal/domain"
	"github.com/set-night/citycopilot/internal/jsonx"
	"github.com/shopspring/decimal"
)

const defaultCurrency = "SAR"

type Card struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Price    string `json:"price,omitempty"`
	Image    string `json:"image,omitempty"`
}

type CarouselData struct {
	Title string `json:"title"`
	Items []Card `json:"items"`
	Total int    `json:"total"`
}

type ListItem struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Status   string `json:"status,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Link     string `json:"link,omitempty"`
}

type ListData struct {
	Title string     `json:"title"`
	Items []ListItem `json:"items"`
	Total int        `json:"total"`
}

// noun carries both forms so summaries read naturally.
type noun struct {
	one, many string
}

func (n noun) count(c int) string {
	if c == 1 {
		return "1 " + n.one
	}
	return fmt.Sprintf("%d %s", c, n.many)
}

// recordShape describes how one record-style endpoint maps onto a list.
type recordShape struct {
	noun     noun
	title    string
	fields   []string
	titleKey []string
	subtitle func(map[string]any) string
	status   []string
	amount   []string
	link     []string
	chips    []string
}

var recordShapes = map[string]recordShape{
	"/logistics/fleets": {
		noun:     noun{"fleet", "fleets"},
		title:    "Fleets",
		fields:   []string{"fleets", "items", "data"},
		titleKey: []string{"name", "id"},
		subtitle: func(o map[string]any) string {
			if n := jsonx.String(o, "vehicleCount", "vehicles_count", "size"); n != "" {
				return n + " vehicles"
			}
			return jsonx.String(o, "region", "depot")
		},
		status: []string{"status"},
		chips:  []string{"Show vehicles", "Show deliveries"},
	},
	"/logistics/vehicles": {
		noun:     noun{"vehicle", "vehicles"},
		title:    "Vehicles",
		fields:   []string{"vehicles", "items", "data"},
		titleKey: []string{"plate", "plateNumber", "name", "id"},
		subtitle: field("model", "type"),
		status:   []string{"status", "state"},
		chips:    []string{"Show fleets"},
	},
	"/erp/invoices": {
		noun:     noun{"invoice", "invoices"},
		title:    "Open invoices",
		fields:   []string{"invoices", "items", "data"},
		titleKey: []string{"number", "invoiceNumber", "id"},
		subtitle: field("customer", "vendor", "counterparty"),
		status:   []string{"status"},
		amount:   []string{"amount", "total", "amountDue"},
		chips:    []string{"Pay my bill", "Show inventory"},
	},
	"/erp/inventory": {
		noun:     noun{"inventory item", "inventory items"},
		title:    "Inventory",
		fields:   []string{"inventory", "items", "data"},
		titleKey: []string{"name", "sku", "id"},
		subtitle: func(o map[string]any) string {
			if q := jsonx.String(o, "quantity", "qty", "onHand"); q != "" {
				return "qty " + q
			}
			return ""
		},
		status: []string{"status"},
		chips:  []string{"Show open invoices"},
	},
	"/identity/dids": {
		noun:     noun{"decentralized identity", "decentralized identities"},
		title:    "Your identities",
		fields:   []string{"dids", "items", "data"},
		titleKey: []string{"did", "id"},
		subtitle: field("method", "label"),
		status:   []string{"status"},
		chips:    []string{"Show my credentials"},
	},
	"/content/articles": {
		noun:     noun{"article", "articles"},
		title:    "Articles",
		fields:   []string{"articles", "items", "data"},
		titleKey: []string{"title", "headline", "id"},
		subtitle: articleExcerpt,
		link:     []string{"url", "link"},
		chips:    []string{"Show more news"},
	},
	"/payments/transactions": {
		noun:     noun{"transaction", "transactions"},
		title:    "Recent transactions",
		fields:   []string{"transactions", "items", "data"},
		titleKey: []string{"description", "reference", "id"},
		subtitle: field("merchant", "counterparty", "date", "createdAt"),
		status:   []string{"status"},
		amount:   []string{"amount", "total"},
		chips:    []string{"Show open invoices"},
	},
	"/workflows/list": {
		noun:     noun{"workflow", "workflows"},
		title:    "Workflows",
		fields:   []string{"workflows", "items", "data"},
		titleKey: []string{"name", "id"},
		subtitle: field("lastRun", "schedule", "trigger"),
		status:   []string{"status", "state"},
		chips:    []string{"Show failed runs"},
	},
}

func field(keys ...string) func(map[string]any) string {
	return func(o map[string]any) string {
		return jsonx.String(o, keys...)
	}
}

// money reads an amount and its currency. Amounts may arrive as numbers or
// strings.
func money(o map[string]any, keys ...string) (decimal.Decimal, string, bool) {
	raw := jsonx.String(o, keys...)
	if raw == "" {
		return decimal.Zero, "", false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, "", false
	}
	currency := jsonx.String(o, "currency")
	if currency == "" {
		currency = defaultCurrency
	}
	return d, strings.ToUpper(currency), true
}

func formatMoney(d decimal.Decimal, currency string) string {
	return currency + " " + d.StringFixed(2)
}

func capItems[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// summary builds the lead sentence, e.g. "I found 24 products. Here are the top 6."
func summary(n noun, total, shown int, where string) string {
	s := "I found " + n.count(total) + where + "."
	if total > shown {
		s += fmt.Sprintf(" Here are the top %d.", shown)
	}
	return s
}

func shape(r Result) (domain.Response, bool) {
	switch r.Endpoint {
	case "/commerce/products":
		return shapeProducts(r)
	case "/commerce/stores":
		return shapeStores(r)
	}
	if s, ok := recordShapes[r.Endpoint]; ok {
		return shapeRecords(r, s)
	}
	return domain.Response{}, false
}

func shapeProducts(r Result) (domain.Response, bool) {
	items := jsonx.List[map[string]any](r.Data(), "products", "items", "data")
	if len(items) == 0 {
		return domain.Response{}, false
	}

	shown := capItems(items, config.MaxCarouselItems)
	cards := make([]Card, 0, len(shown))
	for _, it := range shown {
		c := Card{
			Title:    jsonx.String(it, "name", "title", "id"),
			Subtitle: jsonx.String(it, "store", "brand", "category"),
			Image:    jsonx.String(it, "image", "imageUrl", "thumbnail"),
		}
		if d, cur, ok := money(it, "price", "amount"); ok {
			c.Price = formatMoney(d, cur)
		}
		cards = append(cards, c)
	}

	total := r.Total(len(items))
	return domain.Response{
		Content: summary(noun{"product", "products"}, total, len(cards), ""),
		Mode:    domain.ModeSuggest,
		Artifacts: []domain.Artifact{
			{Type: domain.ArtifactCarousel, Data: CarouselData{Title: "Products", Items: cards, Total: total}},
			domain.Chips("Show stores nearby", "Compare prices"),
		},
	}, true
}

func shapeStores(r Result) (domain.Response, bool) {
	items := jsonx.List[map[string]any](r.Data(), "stores", "items", "data")
	if len(items) == 0 {
		return domain.Response{}, false
	}

	shown := capItems(items, config.MaxCarouselItems)
	cards := make([]Card, 0, len(shown))
	for _, it := range shown {
		cards = append(cards, Card{
			Title:    jsonx.String(it, "name", "title", "id"),
			Subtitle: jsonx.String(it, "address", "district", "category"),
			Image:    jsonx.String(it, "image", "logo"),
		})
	}

	total := r.Total(len(items))
	return domain.Response{
		Content: summary(noun{"store", "stores"}, total, len(cards), " nearby"),
		Mode:    domain.ModeSuggest,
		Artifacts: []domain.Artifact{
			{Type: domain.ArtifactCarousel, Data: CarouselData{Title: "Stores", Items: cards, Total: total}},
			domain.Chips("Show them on a map"),
		},
	}, true
}

func shapeRecords(r Result, s recordShape) (domain.Response, bool) {
	items := jsonx.List[map[string]any](r.Data(), s.fields...)
	if len(items) == 0 {
		return domain.Response{}, false
	}

	// Totals cover every returned record, not only the displayed ones.
	sum, currency, hasSum := decimal.Zero, "", false
	if len(s.amount) > 0 {
		for _, it := range items {
			if d, cur, ok := money(it, s.amount...); ok {
				sum = sum.Add(d)
				currency, hasSum = cur, true
			}
		}
	}

	shown := capItems(items, config.MaxRecordItems)
	list := make([]ListItem, 0, len(shown))
	for _, it := range shown {
		li := ListItem{Title: jsonx.String(it, s.titleKey...)}
		if s.subtitle != nil {
			li.Subtitle = s.subtitle(it)
		}
		if len(s.status) > 0 {
			li.Status = jsonx.String(it, s.status...)
		}
		if len(s.link) > 0 {
			li.Link = jsonx.String(it, s.link...)
		}
		if d, cur, ok := money(it, s.amount...); ok {
			li.Amount = formatMoney(d, cur)
		}
		list = append(list, li)
	}

	total := r.Total(len(items))
	content := summary(s.noun, total, len(list), "")
	if hasSum {
		content += " Total amount: " + formatMoney(sum, currency) + "."
	}

	artifacts := []domain.Artifact{
		{Type: domain.ArtifactList, Data: ListData{Title: s.title, Items: list, Total: total}},
	}
	if len(s.chips) > 0 {
		artifacts = append(artifacts, domain.Chips(s.chips...))
	}
	return domain.Response{Content: content, Mode: domain.ModeSuggest, Artifacts: artifacts}, true
}
