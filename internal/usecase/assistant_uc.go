// File: internal/usecase/assistant_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/adapter"
	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/infra/i18n"
	"realty-marketplace/internal/infra/logging"
	"realty-marketplace/internal/infra/metrics"
	"realty-marketplace/internal/search"
)

// Compile-time check
var _ AssistantUseCase = (*assistantUC)(nil)

// AssistantUseCase answers free-text and voice property questions with
// rule-based extraction against the listing store.
type AssistantUseCase interface {
	Chat(ctx context.Context, message, language string) (*ChatReply, error)
	Voice(ctx context.Context, audio []byte, language string) (*VoiceReply, error)
}

type AssistantMatch struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Price        int64              `json:"price"`
	Location     string             `json:"location"`
	Bedrooms     int                `json:"bedrooms"`
	PropertyType model.PropertyType `json:"propertyType,omitempty"`
	Image        string             `json:"images,omitempty"`
	AgencyName   string             `json:"agencyName,omitempty"`
}

type ChatReply struct {
	Response    string              `json:"response"`
	Properties  []AssistantMatch    `json:"properties"`
	Preferences model.PreferenceSet `json:"preferences"`
}

type VoiceReply struct {
	Transcription string           `json:"transcription"`
	Response      string           `json:"response"`
	Properties    []AssistantMatch `json:"properties"`
	AudioURL      *string          `json:"audioUrl"`
}

type assistantUC struct {
	listings    repository.ListingRepository
	agencies    repository.AgencyRepository
	transcriber adapter.Transcriber
	bundle      *i18n.Bundle
	log         *zerolog.Logger
}

func NewAssistantUseCase(
	listings repository.ListingRepository,
	agencies repository.AgencyRepository,
	transcriber adapter.Transcriber,
	bundle *i18n.Bundle,
	logger *zerolog.Logger,
) *assistantUC {
	l := logger.With().Str("component", "AssistantUseCase").Logger()
	return &assistantUC{
		listings:    listings,
		agencies:    agencies,
		transcriber: transcriber,
		bundle:      bundle,
		log:         &l,
	}
}

func (uc *assistantUC) Chat(ctx context.Context, message, language string) (*ChatReply, error) {
	defer logging.TraceDuration(uc.log, "AssistantUseCase.Chat")()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrInvalidArgument
	}
	tr := uc.bundle.For(language)
	prefs := search.Extract(message)

	reply := &ChatReply{Preferences: prefs, Properties: []AssistantMatch{}}
	if prefs.IsEmpty() {
		reply.Response = tr.T("assistant.greeting")
		metrics.ObserveAssistantQuery("chat", "greeting", 0)
		return reply, nil
	}

	found, _, err := uc.listings.Search(ctx, repository.NoTX, search.BuildQuery(prefs, search.ChatResultLimit))
	if err != nil {
		return nil, err
	}
	reply.Properties = uc.matches(ctx, found)

	if len(found) == 0 {
		raw, _ := json.Marshal(prefs)
		reply.Response = tr.T("assistant.no_match", string(raw))
		metrics.ObserveAssistantQuery("chat", "no_match", 0)
		return reply, nil
	}

	var b strings.Builder
	b.WriteString(tr.T("assistant.found_header", len(found)))
	b.WriteString("\n\n")
	for i, m := range reply.Properties {
		b.WriteString(tr.T("assistant.item", i+1, m.Title, FormatPrice(m.Price), m.Location, m.PropertyType, m.Bedrooms, m.AgencyName))
		b.WriteString("\n\n")
	}
	b.WriteString(tr.T("assistant.more_details"))
	reply.Response = b.String()

	metrics.ObserveAssistantQuery("chat", "match", len(found))
	return reply, nil
}

// Voice transcribes the recording and answers with at most three matches.
// No speech is synthesised, so AudioURL is always nil.
func (uc *assistantUC) Voice(ctx context.Context, audio []byte, language string) (*VoiceReply, error) {
	defer logging.TraceDuration(uc.log, "AssistantUseCase.Voice")()

	text, err := uc.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		return nil, err
	}
	tr := uc.bundle.For(language)
	prefs := search.Extract(text)

	found, _, err := uc.listings.Search(ctx, repository.NoTX, search.BuildQuery(prefs, search.VoiceResultLimit))
	if err != nil {
		return nil, err
	}

	reply := &VoiceReply{Transcription: text, Properties: uc.matches(ctx, found)}
	if len(found) == 0 {
		reply.Response = tr.T("voice.no_match")
		metrics.ObserveAssistantQuery("voice", "no_match", 0)
		return reply, nil
	}
	first := found[0]
	reply.Response = tr.T("voice.found", len(found), first.Title, FormatPrice(first.Price), first.Location.City)
	metrics.ObserveAssistantQuery("voice", "match", len(found))
	return reply, nil
}

func (uc *assistantUC) matches(ctx context.Context, found []*model.Listing) []AssistantMatch {
	names := make(map[string]string)
	out := make([]AssistantMatch, 0, len(found))
	for _, l := range found {
		name, ok := names[l.AgencyID]
		if !ok {
			if a, err := uc.agencies.FindByID(ctx, repository.NoTX, l.AgencyID); err == nil {
				name = a.Name
			} else {
				uc.log.Debug().Err(err).Str("agency_id", l.AgencyID).Msg("agency lookup failed")
			}
			names[l.AgencyID] = name
		}
		m := AssistantMatch{
			ID:           l.ID,
			Title:        l.Title,
			Price:        l.Price,
			Location:     l.Location.City,
			Bedrooms:     l.Bedrooms,
			PropertyType: l.PropertyType,
			AgencyName:   name,
		}
		if len(l.Images) > 0 {
			m.Image = l.Images[0].URL
		}
		out = append(out, m)
	}
	return out
}

// FormatPrice renders whole dollars with thousands separators, e.g. 1250000 -> "1,250,000".
func FormatPrice(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
