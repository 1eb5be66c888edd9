package speech

import (
	"errors"
	"testing"
)

func testVoices() []Voice {
	return []Voice{
		{ID: "alex", Name: "Alex", Language: "en_US", Gender: "male"},
		{ID: "daniel", Name: "Daniel", Language: "en_GB", Gender: "male"},
		{ID: "anna", Name: "Anna", Language: "de_DE", Gender: "female"},
	}
}

func TestPickerNoSelectionBeforeVoicesArrive(t *testing.T) {
	p := NewPicker("", "")

	if _, ok := p.Current(); ok {
		t.Error("Current() reported a selection before any voices arrived")
	}

	p.SetAvailable(nil)
	if _, ok := p.Current(); ok {
		t.Error("Current() reported a selection after an empty delivery")
	}

	p.SetAvailable(testVoices())
	v, ok := p.Current()
	if !ok {
		t.Fatal("Current() reported no selection after voices arrived")
	}
	if v.ID != "alex" {
		t.Errorf("default voice = %q, want %q", v.ID, "alex")
	}
}

func TestPickerPreferredName(t *testing.T) {
	p := NewPicker("dani", "")
	p.SetAvailable(testVoices())

	v, ok := p.Current()
	if !ok {
		t.Fatal("no selection")
	}
	if v.ID != "daniel" {
		t.Errorf("default voice = %q, want %q", v.ID, "daniel")
	}
}

func TestPickerLanguageMatch(t *testing.T) {
	p := NewPicker("", "de")
	p.SetAvailable(testVoices())

	v, ok := p.Current()
	if !ok {
		t.Fatal("no selection")
	}
	if v.ID != "anna" {
		t.Errorf("default voice = %q, want %q", v.ID, "anna")
	}
}

func TestPickerPreferredNameBeatsLanguage(t *testing.T) {
	p := NewPicker("alex", "de")
	p.SetAvailable(testVoices())

	v, _ := p.Current()
	if v.ID != "alex" {
		t.Errorf("default voice = %q, want %q", v.ID, "alex")
	}
}

func TestPickerSelect(t *testing.T) {
	p := NewPicker("", "")
	p.SetAvailable(testVoices())

	if err := p.Select("anna"); err != nil {
		t.Fatalf("Select(anna) = %v", err)
	}
	if v, _ := p.Current(); v.ID != "anna" {
		t.Errorf("Current() = %q, want %q", v.ID, "anna")
	}

	if err := p.Select("nope"); !errors.Is(err, ErrVoiceNotFound) {
		t.Errorf("Select(nope) = %v, want ErrVoiceNotFound", err)
	}
	if v, _ := p.Current(); v.ID != "anna" {
		t.Errorf("failed Select changed the voice to %q", v.ID)
	}
}

func TestPickerNextCycles(t *testing.T) {
	p := NewPicker("", "")
	p.SetAvailable(testVoices())

	order := []string{"daniel", "anna", "alex"}
	for _, want := range order {
		v, err := p.Next()
		if err != nil {
			t.Fatalf("Next() = %v", err)
		}
		if v.ID != want {
			t.Errorf("Next() = %q, want %q", v.ID, want)
		}
	}
}

func TestPickerNextWithoutVoices(t *testing.T) {
	p := NewPicker("", "")
	if _, err := p.Next(); !errors.Is(err, ErrNoVoices) {
		t.Errorf("Next() = %v, want ErrNoVoices", err)
	}
}

func TestPickerRedeliveryKeepsSelection(t *testing.T) {
	p := NewPicker("", "")
	p.SetAvailable(testVoices())
	if err := p.Select("daniel"); err != nil {
		t.Fatal(err)
	}

	p.SetAvailable(testVoices())
	if v, _ := p.Current(); v.ID != "daniel" {
		t.Errorf("redelivery changed selection to %q", v.ID)
	}
}

func TestPickerRedeliveryDroppingSelection(t *testing.T) {
	p := NewPicker("", "")
	p.SetAvailable(testVoices())
	if err := p.Select("anna"); err != nil {
		t.Fatal(err)
	}

	p.SetAvailable(testVoices()[:2]) // anna gone
	v, ok := p.Current()
	if !ok {
		t.Fatal("no selection after redelivery")
	}
	if v.ID == "anna" {
		t.Error("selection still points at a voice no longer offered")
	}
}
