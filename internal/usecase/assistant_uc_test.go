//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/ports/adapter"
	"realty-marketplace/internal/infra/adapters/speech"
	"realty-marketplace/internal/infra/i18n"
	"realty-marketplace/internal/usecase"
)

func newAssistantUC(t *testing.T, f *fixture, tr adapter.Transcriber) usecase.AssistantUseCase {
	t.Helper()
	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		t.Fatal(err)
	}
	return usecase.NewAssistantUseCase(f.listings, f.agencies, tr, bundle, newTestLogger())
}

// seedNewYork creates three listings for one agency: two matching a
// "3 bedroom apartment in New York under 500k" request and one too expensive.
func seedNewYork(t *testing.T, f *fixture) {
	t.Helper()
	f.seedAgency(t, "owner-ny", agencyOpts{})
	uc := newListingUC(f)
	for _, d := range []struct {
		title string
		price int64
	}{
		{"Park view", 420_000},
		{"Loft", 480_000},
		{"Penthouse", 2_500_000},
	} {
		draft := validDraft()
		draft.Title = d.title
		draft.Price = d.price
		draft.Location = []byte(`{"address":"10 Broadway","city":"New York"}`)
		if _, err := uc.Create(context.Background(), "owner-ny", draft, nil); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAssistantUseCase_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("should greet when nothing can be extracted", func(t *testing.T) {
		f := newFixture(t)
		uc := newAssistantUC(t, f, speech.NewStubTranscriber())

		reply, err := uc.Chat(ctx, "hello there", "en")

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !strings.HasPrefix(reply.Response, "Hello! I'm your real estate assistant.") {
			t.Errorf("Response = %q", reply.Response)
		}
		if len(reply.Properties) != 0 || !reply.Preferences.IsEmpty() {
			t.Errorf("reply = %+v, want no properties and empty preferences", reply)
		}
	})

	t.Run("should list matches with agency names", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		seedNewYork(t, f)
		uc := newAssistantUC(t, f, speech.NewStubTranscriber())

		// --- Act ---
		reply, err := uc.Chat(ctx, "Looking for a 3 bedroom apartment in New York under 500k", "en")

		// --- Assert ---
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if len(reply.Properties) != 2 {
			t.Fatalf("Properties = %d, want 2", len(reply.Properties))
		}
		if reply.Properties[0].AgencyName != "Agency owner-ny" {
			t.Errorf("AgencyName = %q", reply.Properties[0].AgencyName)
		}
		if !strings.HasPrefix(reply.Response, "I found 2 properties matching your criteria:") {
			t.Errorf("Response header = %q", reply.Response)
		}
		if !strings.Contains(reply.Response, "Price: $480,000") {
			t.Errorf("Response missing formatted price: %q", reply.Response)
		}
		if !strings.HasSuffix(reply.Response, "Would you like more details about any of these properties?") {
			t.Errorf("Response footer = %q", reply.Response)
		}
		if reply.Preferences.MaxPrice == nil || *reply.Preferences.MaxPrice != 500_000 {
			t.Errorf("MaxPrice = %v, want 500000", reply.Preferences.MaxPrice)
		}
	})

	t.Run("should echo the criteria when nothing matches", func(t *testing.T) {
		f := newFixture(t)
		seedNewYork(t, f)
		uc := newAssistantUC(t, f, speech.NewStubTranscriber())

		reply, err := uc.Chat(ctx, "a villa in Paris", "en")

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if len(reply.Properties) != 0 {
			t.Errorf("Properties = %d, want 0", len(reply.Properties))
		}
		if !strings.Contains(reply.Response, `"propertyType":"villa"`) || !strings.Contains(reply.Response, `"city":"Paris"`) {
			t.Errorf("Response = %q, want serialised criteria", reply.Response)
		}
	})

	t.Run("should answer in the requested language", func(t *testing.T) {
		f := newFixture(t)
		uc := newAssistantUC(t, f, speech.NewStubTranscriber())

		reply, err := uc.Chat(ctx, "hola", "es-MX")

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !strings.HasPrefix(reply.Response, "¡Hola!") {
			t.Errorf("Response = %q, want Spanish greeting", reply.Response)
		}
	})

	t.Run("should reject an empty message", func(t *testing.T) {
		f := newFixture(t)
		uc := newAssistantUC(t, f, speech.NewStubTranscriber())

		_, err := uc.Chat(ctx, "   ", "en")

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("Chat() error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestAssistantUseCase_Voice(t *testing.T) {
	ctx := context.Background()

	t.Run("should search with the transcription", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t)
		seedNewYork(t, f)
		uc := newAssistantUC(t, f, speech.NewStubTranscriber())

		// --- Act ---
		reply, err := uc.Voice(ctx, []byte("RIFF"), "en")

		// --- Assert ---
		if err != nil {
			t.Fatalf("Voice() error = %v", err)
		}
		if reply.Transcription != speech.DefaultTranscript {
			t.Errorf("Transcription = %q", reply.Transcription)
		}
		if len(reply.Properties) != 2 {
			t.Errorf("Properties = %d, want 2", len(reply.Properties))
		}
		if !strings.HasPrefix(reply.Response, "I found 2 properties matching your search.") {
			t.Errorf("Response = %q", reply.Response)
		}
		if reply.AudioURL != nil {
			t.Errorf("AudioURL = %v, want nil", *reply.AudioURL)
		}
	})

	t.Run("should report no match", func(t *testing.T) {
		f := newFixture(t)
		uc := newAssistantUC(t, f, &speech.StubTranscriber{Text: "a furnished villa in Rome"})

		reply, err := uc.Voice(ctx, nil, "en")

		if err != nil {
			t.Fatalf("Voice() error = %v", err)
		}
		if reply.Response != "I couldn't find properties matching your criteria. Would you like to adjust your search?" {
			t.Errorf("Response = %q", reply.Response)
		}
	})

	t.Run("should propagate transcription errors", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("decoder failed")
		uc := newAssistantUC(t, f, &MockTranscriber{
			TranscribeFunc: func(context.Context, []byte, string) (string, error) { return "", boom },
		})

		_, err := uc.Voice(ctx, []byte{1}, "en")

		if !errors.Is(err, boom) {
			t.Fatalf("Voice() error = %v, want %v", err, boom)
		}
	})
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{450000, "450,000"},
		{1250000, "1,250,000"},
		{-12345, "-12,345"},
	}
	for _, tt := range tests {
		if got := usecase.FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
