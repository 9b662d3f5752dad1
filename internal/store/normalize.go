package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/panyeroa1/orbit-translator/internal/protocol"
)

// changeRow is the union of the two row schema variants observed on the
// push channel. Which variant applies is decided by which fields are set.
type changeRow struct {
	ID                 string    `json:"id"`
	SourceText         string    `json:"source_text"`
	TranslatedText     string    `json:"translated_text"`
	TargetLanguage     string    `json:"target_language"`
	SessionID          string    `json:"session_id"`
	FullTranscriptText string    `json:"full_transcript_text"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NormalizeChange converts a push-channel row change into a Record.
func NormalizeChange(change protocol.RecordChange) (*Record, error) {
	if len(change.Row) == 0 {
		return nil, errors.New("record change carries no row")
	}
	var row changeRow
	if err := json.Unmarshal(change.Row, &row); err != nil {
		return nil, fmt.Errorf("decode changed row: %w", err)
	}
	if row.ID == "" {
		return nil, errors.New("changed row has no id")
	}
	if strings.TrimSpace(row.FullTranscriptText) != "" {
		return normalizeSessionTranscript(row.ID, row.FullTranscriptText, row.UpdatedAt), nil
	}
	return normalizeTranslation(row.ID, row.SourceText, row.TranslatedText, row.TargetLanguage, row.UpdatedAt), nil
}

// normalizeTranslation prefers the translated text and falls back to the
// source text when no translation is present.
func normalizeTranslation(id, sourceText, translatedText, language string, updatedAt time.Time) *Record {
	text := strings.TrimSpace(translatedText)
	if text == "" {
		text = strings.TrimSpace(sourceText)
	}
	return &Record{
		ID:         id,
		Text:       text,
		SourceText: strings.TrimSpace(sourceText),
		Language:   language,
		UpdatedAt:  updatedAt,
	}
}

func normalizeSessionTranscript(id, text string, updatedAt time.Time) *Record {
	trimmed := strings.TrimSpace(text)
	return &Record{
		ID:        id,
		Text:      trimmed,
		UpdatedAt: updatedAt,
	}
}
