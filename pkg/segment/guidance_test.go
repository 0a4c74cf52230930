package segment

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTagGuidance_DeclarationOrderNotAppearanceOrder(t *testing.T) {
	// Triggers appear in text in reverse of the table order.
	text := "Obtain consent before processing. Controllers must audit systems and encrypt records."

	got := TagGuidance(text, DefaultGuidanceRules())
	want := []string{"Encrypt sensitive data", "Maintain audit logs", "Obtain proper consent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagGuidance = %v, want %v", got, want)
	}
}

func TestTagGuidance_CaseInsensitive(t *testing.T) {
	got := TagGuidance("DATA MUST BE ENCRYPTED AND ACCESS CONTROL ENFORCED", DefaultGuidanceRules())
	want := []string{"Encrypt sensitive data", "Enforce access control"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagGuidance = %v, want %v", got, want)
	}
}

func TestTagGuidance_NoDuplicateAdvisories(t *testing.T) {
	rules := []GuidanceRule{
		{Trigger: "encrypt", Advice: "Encrypt sensitive data"},
		{Trigger: "encryption", Advice: "Encrypt sensitive data"},
	}

	got := TagGuidance("encryption is required; encrypt everything", rules)
	if len(got) != 1 {
		t.Errorf("TagGuidance = %v, want a single advisory", got)
	}
}

func TestTagGuidance_Deterministic(t *testing.T) {
	text := "audit trails, consent forms, and encrypted storage are required to minimize exposure"
	first := TagGuidance(text, DefaultGuidanceRules())
	for i := 0; i < 10; i++ {
		if got := TagGuidance(text, DefaultGuidanceRules()); !reflect.DeepEqual(got, first) {
			t.Fatalf("TagGuidance not deterministic: %v then %v", first, got)
		}
	}
}

func TestTagGuidance_NoTriggers(t *testing.T) {
	if got := TagGuidance("nothing relevant here", DefaultGuidanceRules()); len(got) != 0 {
		t.Errorf("TagGuidance = %v, want empty", got)
	}
}

func TestLoadGuidanceRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guidance.yaml")
	content := "- trigger: breach\n  advice: Report breaches promptly\n- trigger: retention\n  advice: Define retention periods\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadGuidanceRules(path)
	if err != nil {
		t.Fatalf("LoadGuidanceRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("loaded %d rules, want 2", len(rules))
	}
	if rules[0].Trigger != "breach" || rules[0].Advice != "Report breaches promptly" {
		t.Errorf("first rule = %+v", rules[0])
	}

	got := TagGuidance("notify upon breach; observe retention limits", rules)
	want := []string{"Report breaches promptly", "Define retention periods"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagGuidance with loaded rules = %v, want %v", got, want)
	}
}

func TestLoadGuidanceRules_RejectsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guidance.yaml")
	if err := os.WriteFile(path, []byte("- trigger: \"\"\n  advice: Something\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadGuidanceRules(path); err == nil {
		t.Error("LoadGuidanceRules accepted an empty trigger")
	}
}
