package gateway

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Domain string

const (
	DomainNone      Domain = ""
	DomainCommerce  Domain = "commerce"
	DomainLogistics Domain = "logistics"
	DomainERP       Domain = "erp"
	DomainIdentity  Domain = "identity"
	DomainContent   Domain = "content"
	DomainPayments  Domain = "payments"
	DomainWorkflow  Domain = "workflow"
)

// Keyword classes are disjoint: no keyword belongs to two domains. When a
// text hits several classes the first domain in this order wins.
var domainPatterns = []struct {
	domain  Domain
	pattern *regexp.Regexp
}{
	{DomainCommerce, regexp.MustCompile(`(?i)\b(products?|shop(?:s|ping)?|stores?|buy|catalog(?:ue)?)\b`)},
	{DomainLogistics, regexp.MustCompile(`(?i)\b(fleets?|vehicles?|deliver(?:y|ies)|shipments?|trucks?|logistics)\b`)},
	{DomainERP, regexp.MustCompile(`(?i)\b(invoices?|inventory|stock|erp|purchase orders?)\b`)},
	{DomainIdentity, regexp.MustCompile(`(?i)\b(dids?|identity|identities|credentials?|wallet)\b`)},
	{DomainContent, regexp.MustCompile(`(?i)\b(articles?|news|posts?|guides?|blog)\b`)},
	{DomainPayments, regexp.MustCompile(`(?i)\b(payments?|transactions?|refunds?|payouts?)\b`)},
	{DomainWorkflow, regexp.MustCompile(`(?i)\b(workflows?|automations?|pipelines?)\b`)},
}

// Classify maps text to a backend domain, or DomainNone. It is pure.
func Classify(text string) Domain {
	for _, p := range domainPatterns {
		if p.pattern.MatchString(text) {
			return p.domain
		}
	}
	return DomainNone
}

var (
	storeHint     = regexp.MustCompile(`(?i)\b(stores?|shops?)\b`)
	vehicleHint   = regexp.MustCompile(`(?i)\b(vehicles?|trucks?)\b`)
	inventoryHint = regexp.MustCompile(`(?i)\b(inventory|stock)\b`)
)

const maxQueryRunes = 100

// Route picks the endpoint and query parameters for a classified text.
func Route(d Domain, text string) (string, url.Values) {
	q := strings.TrimSpace(text)
	if utf8.RuneCountInString(q) > maxQueryRunes {
		q = string([]rune(q)[:maxQueryRunes])
	}
	params := url.Values{}

	switch d {
	case DomainCommerce:
		if storeHint.MatchString(text) {
			params.Set("limit", "20")
			return "/commerce/stores", params
		}
		params.Set("q", q)
		params.Set("limit", "20")
		return "/commerce/products", params
	case DomainLogistics:
		if vehicleHint.MatchString(text) {
			return "/logistics/vehicles", params
		}
		return "/logistics/fleets", params
	case DomainERP:
		if inventoryHint.MatchString(text) {
			return "/erp/inventory", params
		}
		params.Set("status", "open")
		return "/erp/invoices", params
	case DomainIdentity:
		return "/identity/dids", params
	case DomainContent:
		params.Set("q", q)
		return "/content/articles", params
	case DomainPayments:
		return "/payments/transactions", params
	case DomainWorkflow:
		return "/workflows/list", params
	}
	return "", nil
}
