package prompt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ariephoon/aiva/internal/config"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	}
}

func TestNew_UnknownVariant(t *testing.T) {
	_, err := New("aiva-unknown", "")
	if !errors.Is(err, config.ErrInvalidPromptVariant) {
		t.Fatalf("expected ErrInvalidPromptVariant, got %v", err)
	}
}

func TestSystem_ClaimsVariant(t *testing.T) {
	a, err := New(config.VariantAivaClaims, "", WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sys := a.System()
	if !strings.Contains(sys, "Nama Anda adalah AIVA") {
		t.Errorf("missing persona line:\n%s", sys)
	}
	if !strings.Contains(sys, "BPJS Kesehatan") {
		t.Error("missing domain framing")
	}
	if !strings.Contains(sys, "esai pendek") {
		t.Error("missing essay output format")
	}
}

func TestSystem_DataVariant(t *testing.T) {
	a, err := New(config.VariantAivaData, "", WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sys := a.System()
	if !strings.Contains(sys, "Klaim Diajukan") {
		t.Error("missing claims reference table")
	}
	if !strings.Contains(sys, "SATU BARIS") {
		t.Error("missing single-line script rule")
	}
	if !strings.Contains(sys, "base64") {
		t.Error("missing base64 image contract")
	}
	if !strings.Contains(sys, "March 2025") {
		t.Errorf("missing current month:\n%s", sys)
	}
}

func TestSystem_RecordsVariant(t *testing.T) {
	a, err := New(config.VariantTitikRecords, "", WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sys := a.System()
	if !strings.Contains(sys, "Nama Anda adalah TITIK") {
		t.Error("missing TITIK persona")
	}
	if !strings.Contains(sys, "CREATE TABLE patients") {
		t.Error("missing embedded schema")
	}
	if !strings.Contains(sys, "getRawQueryResult") {
		t.Error("missing query tool instruction")
	}
}

func TestSystem_PersonaOverride(t *testing.T) {
	a, err := New(config.VariantAivaClaims, "NAVI", WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sys := a.System()
	if !strings.Contains(sys, "Nama Anda adalah NAVI") {
		t.Error("persona override not applied")
	}
	if strings.Contains(sys, "AIVA") {
		t.Error("default persona leaked through override")
	}
	if a.Persona() != "NAVI" {
		t.Errorf("Persona() = %q", a.Persona())
	}
}

func TestSystem_Deterministic(t *testing.T) {
	a, err := New(config.VariantAivaData, "", WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if a.System() != a.System() {
		t.Error("System() is not deterministic under a fixed clock")
	}
}
