package domain

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed status_rules.yaml
var statusRulesYAML []byte

// StatusRuleTable maps the CRM status values of one customer to internal statuses.
type StatusRuleTable struct {
	Email             string   `yaml:"email"`
	Archived          []string `yaml:"archived"`
	InPreparation     []string `yaml:"inPreparation"`
	MarketObservation []string `yaml:"marketObservation"`
	Rented            []string `yaml:"rented"`
	Sold              []string `yaml:"sold"`
	Active            []string `yaml:"active"`
}

type statusRule struct {
	prefixes []string
	status   Status
}

// rules returns the prefix lists in match priority order. Active carries no
// status since it depends on the marketing type.
func (t StatusRuleTable) rules() []statusRule {
	return []statusRule{
		{t.Archived, StatusArchived},
		{t.InPreparation, StatusInPreparation},
		{t.MarketObservation, StatusMarketObservation},
		{t.Rented, StatusRented},
		{t.Sold, StatusSold},
		{t.Active, ""},
	}
}

// StatusResolver resolves CRM status values per customer email.
type StatusResolver struct {
	tables map[string]StatusRuleTable
}

// ParseStatusRules reads a YAML list of rule tables.
func ParseStatusRules(data []byte) ([]StatusRuleTable, error) {
	var tables []StatusRuleTable
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse status rules: %w", err)
	}
	return tables, nil
}

// NewStatusResolver indexes tables by normalised email.
func NewStatusResolver(tables []StatusRuleTable) *StatusResolver {
	index := make(map[string]StatusRuleTable, len(tables))
	for _, t := range tables {
		index[normalizeEmail(t.Email)] = t
	}
	return &StatusResolver{tables: index}
}

// DefaultStatusResolver uses the embedded rule tables.
func DefaultStatusResolver() (*StatusResolver, error) {
	tables, err := ParseStatusRules(statusRulesYAML)
	if err != nil {
		return nil, err
	}
	return NewStatusResolver(tables), nil
}

// Resolve maps a vendor status to an internal status for the given customer.
// ok is false when the customer has no rule table; the caller then keeps
// whatever status the listing already has.
func (r *StatusResolver) Resolve(userEmail, vendorStatus, marketingType string) (Status, bool) {
	table, found := r.tables[normalizeEmail(userEmail)]
	if !found {
		return "", false
	}

	for _, rule := range table.rules() {
		if !matchesPrefix(vendorStatus, rule.prefixes) {
			continue
		}
		if rule.status != "" {
			return rule.status, true
		}
		return activeStatus(marketingType), true
	}
	return StatusInPreparation, true
}

// Apply sets the resolved status on a copy of l.
func (r *StatusResolver) Apply(userEmail string, l Listing) Listing {
	if status, ok := r.Resolve(userEmail, l.Status2, l.MarketingType); ok {
		l.Status = status
	}
	return l
}

func matchesPrefix(value string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

var (
	rentMarketingTypes = []string{"MIETE", "RENT", "MIETE_PACHT"}
	saleMarketingTypes = []string{"KAUF", "BUY"}
)

func activeStatus(marketingType string) Status {
	mt := strings.TrimSpace(marketingType)
	for _, v := range rentMarketingTypes {
		if strings.EqualFold(mt, v) {
			return StatusForRent
		}
	}
	for _, v := range saleMarketingTypes {
		if strings.EqualFold(mt, v) {
			return StatusForSale
		}
	}
	return StatusInPreparation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
