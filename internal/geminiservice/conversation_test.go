package geminiservice

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"NutriScan_V1.0/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestBuildProfileSummary(t *testing.T) {
	profile := &database.UserHealthProfile{
		UserID:              "u1",
		Conditions:          []string{"Diabetes", "Hipertensi"},
		FoodAllergies:       []string{"Kacang"},
		DietaryRestrictions: []string{"Rendah gula"},
		Age:                 pgtype.Int4{Int32: 42, Valid: true},
		Gender:              pgtype.Text{String: "Perempuan", Valid: true},
	}

	summary := BuildProfileSummary(profile)
	if summary.IsEmpty() {
		t.Fatal("summary of a filled profile reported empty")
	}

	text := summary.Text()
	for _, want := range []string{"Perempuan, 42 tahun", "Diabetes, Hipertensi", "Kacang", "Rendah gula"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary text missing %q:\n%s", want, text)
		}
	}
}

func TestBuildProfileSummaryNil(t *testing.T) {
	summary := BuildProfileSummary(nil)
	if !summary.IsEmpty() {
		t.Error("nil profile must produce the empty summary")
	}
	if summary.Text() != "" {
		t.Errorf("empty summary text = %q, want empty", summary.Text())
	}
}

func TestConversationWindow(t *testing.T) {
	convo := NewConversationContext(HealthProfileSummary{}, "analisis")
	for i := 0; i < 13; i++ {
		if i%2 == 0 {
			convo.AppendUser(fmt.Sprintf("pertanyaan %d", i))
		} else {
			convo.AppendAssistant(fmt.Sprintf("jawaban %d", i))
		}
	}

	window := convo.Window(10)
	if len(window) != 10 {
		t.Fatalf("Window(10) length = %d, want 10", len(window))
	}

	// The window must be the exact suffix of the history, in order.
	full := convo.Turns()
	if !reflect.DeepEqual(window, full[len(full)-10:]) {
		t.Error("Window(10) is not the most recent suffix of the history")
	}
}

func TestConversationWindowShortHistory(t *testing.T) {
	convo := NewConversationContext(HealthProfileSummary{}, "analisis")
	convo.AppendUser("satu")
	convo.AppendAssistant("dua")

	window := convo.Window(10)
	if len(window) != 2 {
		t.Fatalf("Window(10) on 2 turns length = %d, want 2", len(window))
	}
	if window[0].Text != "satu" || window[1].Text != "dua" {
		t.Errorf("Window(10) = %v, want original order", window)
	}

	if got := convo.Window(0); got != nil {
		t.Errorf("Window(0) = %v, want nil", got)
	}
}

func TestConversationWindowIsACopy(t *testing.T) {
	convo := NewConversationContext(HealthProfileSummary{}, "analisis")
	convo.AppendUser("asli")

	window := convo.Window(10)
	window[0].Text = "diubah"

	if convo.Turns()[0].Text != "asli" {
		t.Error("mutating a window leaked into the conversation history")
	}
}
