package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ankiforge/ankiforge/pkg/models"
)

// List endpoints share a success/error envelope around their payload.

type deckListResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Decks   []string `json:"decks"`
}

type cardListResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error"`
	Items   []models.CardRow `json:"items"`
	Total   *int             `json:"total"`
}

type noteTypeListResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Items   []NoteType `json:"items"`
}

// CardPage is one page of browse results. Total is the match count across
// all pages; when the backend omits it, it falls back to the page length.
type CardPage struct {
	Items []models.CardRow
	Total int
}

// NoteType describes one backend note model. The note-types endpoint has
// shipped two shapes: rich objects, and bare model-name strings. Bare
// names decode to a supported NoteType with empty metadata so both shapes
// flow through the same code.
type NoteType struct {
	Name         string `json:"name"`
	Supported    bool   `json:"supported"`
	Family       string `json:"family"`
	SupportLabel string `json:"supportLabel"`
}

func (t *NoteType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = NoteType{Name: name, Supported: true}
		return nil
	}

	type plain NoteType
	var full plain
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*t = NoteType(full)
	return nil
}

// Recreate modes for the per-mode payload variant.
const (
	ModeBasic = "basic"
	ModeCloze = "cloze"
	ModeBoth  = "both"
)

// Difficulty values for the model-list payload variant.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyMixed  = "mixed"
)

// RecreateRequest is the POST body for bulk recreation. The backend has
// accepted two payload variants over time and this struct carries both;
// exactly one must be populated:
//
//   - ModelNames with a Difficulty, or
//   - Mode with its per-mode model names and optional ExtraTag.
//
// A nil TargetDeckName keeps each note in its original deck.
type RecreateRequest struct {
	CardIDs         []int64 `json:"cardIds"`
	TargetDeckName  *string `json:"targetDeckName,omitempty"`
	SuspendOriginal bool    `json:"suspendOriginal"`
	CountPerNote    int     `json:"countPerNote"`

	ModelNames []string `json:"modelNames,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`

	Mode       string `json:"mode,omitempty"`
	BasicModel string `json:"basicModel,omitempty"`
	ClozeModel string `json:"clozeModel,omitempty"`
	ExtraTag   string `json:"extraTag,omitempty"`

	// ClientRequestID travels as the X-Request-ID header, not in the
	// body, and correlates this run across logs and history.
	ClientRequestID string `json:"-"`
}

// Validate enforces the request contract before any network traffic.
func (r *RecreateRequest) Validate() error {
	if len(r.CardIDs) == 0 {
		return errors.New("no cards selected")
	}
	if r.CountPerNote < 1 {
		return errors.New("count per note must be at least 1")
	}

	hasModels := len(r.ModelNames) > 0
	hasMode := r.Mode != ""
	switch {
	case hasModels && hasMode:
		return errors.New("model list and mode variants are mutually exclusive")
	case hasModels:
		for _, name := range r.ModelNames {
			if strings.TrimSpace(name) == "" {
				return errors.New("model names must not be blank")
			}
		}
		switch r.Difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		case "":
			return errors.New("difficulty is required with a model list")
		default:
			return fmt.Errorf("unknown difficulty %q", r.Difficulty)
		}
	case hasMode:
		switch r.Mode {
		case ModeBasic, ModeCloze, ModeBoth:
		default:
			return fmt.Errorf("unknown mode %q", r.Mode)
		}
		if (r.Mode == ModeBasic || r.Mode == ModeBoth) && strings.TrimSpace(r.BasicModel) == "" {
			return fmt.Errorf("mode %q requires a basic model", r.Mode)
		}
		if (r.Mode == ModeCloze || r.Mode == ModeBoth) && strings.TrimSpace(r.ClozeModel) == "" {
			return fmt.Errorf("mode %q requires a cloze model", r.Mode)
		}
	default:
		return errors.New("either a model list or a mode is required")
	}
	return nil
}

// ReferencedModels lists every model name the request relies on.
func (r *RecreateRequest) ReferencedModels() []string {
	if len(r.ModelNames) > 0 {
		return append([]string(nil), r.ModelNames...)
	}
	var names []string
	if r.Mode == ModeBasic || r.Mode == ModeBoth {
		names = append(names, r.BasicModel)
	}
	if r.Mode == ModeCloze || r.Mode == ModeBoth {
		names = append(names, r.ClozeModel)
	}
	return names
}

// RecreateResult is the per-note outcome attached to a recreate response.
type RecreateResult struct {
	Success   bool   `json:"success"`
	Stage     string `json:"stage"`
	ModelName string `json:"modelName"`
	OldNoteID int64  `json:"oldNoteId"`
	Error     string `json:"error"`
}

// RecreateResponse is the envelope returned by the recreate endpoint.
// Results stays raw so a missing or malformed array degrades to "no
// detail" instead of poisoning the whole envelope.
type RecreateResponse struct {
	Success             bool            `json:"success"`
	Error               string          `json:"error"`
	RequestID           string          `json:"requestId"`
	TotalCreated        int             `json:"totalCreated"`
	TotalFailed         int             `json:"totalFailed"`
	TotalSelectedNotes  int             `json:"totalSelectedNotes"`
	TotalSuspendedCards int             `json:"totalSuspendedCards"`
	Timings             json.RawMessage `json:"timings,omitempty"`
	Results             json.RawMessage `json:"results,omitempty"`

	// HTTPStatus is the transport status the envelope arrived with.
	HTTPStatus int `json:"-"`
}

// DecodedResults parses the optional per-note results. ok is false when
// the array is missing, null or malformed.
func (r *RecreateResponse) DecodedResults() (results []RecreateResult, ok bool) {
	if len(r.Results) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(r.Results, &results); err != nil {
		return nil, false
	}
	if results == nil {
		return nil, false
	}
	return results, true
}

// AnkiHealth is the backend's report on its AnkiConnect link.
type AnkiHealth struct {
	OK                 bool   `json:"ok"`
	Error              string `json:"error"`
	AnkiConnectVersion int    `json:"ankiConnectVersion"`
}

// OllamaHealth is the backend's report on the language-model service.
type OllamaHealth struct {
	OK             bool    `json:"ok"`
	Error          string  `json:"error"`
	Model          string  `json:"model"`
	ModelAvailable bool    `json:"modelAvailable"`
	TimeoutS       float64 `json:"timeoutS"`
}
