package domain

import "testing"

func testResolver() *StatusResolver {
	return NewStatusResolver([]StatusRuleTable{{
		Email:             "Makler@Example.de",
		Archived:          []string{"Archiv"},
		InPreparation:     []string{"Akquise"},
		MarketObservation: []string{"Markt"},
		Rented:            []string{"Vermietet"},
		Sold:              []string{"Verkauft"},
		Active:            []string{"Aktiv", "Verk"},
	}})
}

func TestResolveStatus(t *testing.T) {
	r := testResolver()
	cases := []struct {
		name          string
		vendorStatus  string
		marketingType string
		want          Status
	}{
		{"archived", "Archiviert 2023", "", StatusArchived},
		{"in preparation", "Akquise", "kauf", StatusInPreparation},
		{"market observation", "Marktbeobachtung", "", StatusMarketObservation},
		{"rented", "Vermietet", "", StatusRented},
		{"sold wins over active", "Verkauft", "KAUF", StatusSold},
		{"active rent", "Aktiv", "miete", StatusForRent},
		{"active rent english", "Aktiv", "RENT", StatusForRent},
		{"active sale", "Aktiv", "Buy", StatusForSale},
		{"active unknown marketing type", "Aktiv", "LEASING", StatusInPreparation},
		{"prefix is case-sensitive", "aktiv", "KAUF", StatusInPreparation},
		{"unmatched", "Irgendwas", "KAUF", StatusInPreparation},
		{"empty", "", "KAUF", StatusInPreparation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Resolve("makler@example.de", tc.vendorStatus, tc.marketingType)
			if !ok {
				t.Fatal("expected table to be found")
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestResolveUnknownEmailIsPassThrough(t *testing.T) {
	r := testResolver()

	if _, ok := r.Resolve("someone@else.de", "Aktiv", "KAUF"); ok {
		t.Fatal("expected no table for unknown email")
	}

	listing := Listing{Status: StatusForSale, Status2: "Archiv"}
	if got := r.Apply("someone@else.de", listing); got.Status != StatusForSale {
		t.Fatalf("expected status untouched, got %s", got.Status)
	}
	if got := r.Apply("makler@example.de", listing); got.Status != StatusArchived {
		t.Fatalf("expected archived, got %s", got.Status)
	}
}

func TestDefaultStatusResolverLoads(t *testing.T) {
	r, err := DefaultStatusResolver()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := r.Resolve("info@beispiel-makler.de", "status2obj_aktiv", "miete")
	if !ok || got != StatusForRent {
		t.Fatalf("expected MIETE, got %s (ok=%v)", got, ok)
	}
}

func TestStatusAllIsNotPersistable(t *testing.T) {
	if StatusAll.Persistable() {
		t.Fatal("ALLE must not be persistable")
	}
	if !StatusArchived.Persistable() {
		t.Fatal("ARCHIVIERT must be persistable")
	}
	for _, s := range PersistableStatuses() {
		if s == string(StatusAll) {
			t.Fatal("ALLE leaked into persistable statuses")
		}
	}
}
