package acceptance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/pkg/models"
)

// FakeBackend scripts the backend's HTTP surface for end-to-end tests:
// decks, paged cards, note types, recreate and the two health probes.
// Tests mutate the scripted state through the setters between steps.
type FakeBackend struct {
	mu sync.Mutex

	decks     []string
	cards     []models.CardRow
	noteTypes []api.NoteType

	ankiUp   bool
	ollamaUp bool

	// When recreateRawBody is set it is written verbatim with
	// recreateRawContentType, so tests can stand in for proxies and
	// broken encoders. Otherwise recreateResponse is marshalled.
	recreateStatus         int
	recreateResponse       api.RecreateResponse
	recreateRawBody        string
	recreateRawContentType string

	cardQueries      []string
	recreateRequests []CapturedRecreate
}

// CapturedRecreate is one recorded recreate call: the correlation header
// and the decoded body.
type CapturedRecreate struct {
	RequestID string
	Body      api.RecreateRequest
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		ankiUp:         true,
		ollamaUp:       true,
		recreateStatus: http.StatusOK,
	}
}

// Start serves the fake on an ephemeral port. Callers own the shutdown.
func (f *FakeBackend) Start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/anki-decks", f.handleDecks)
	mux.HandleFunc("/api/anki-cards", f.handleCards)
	mux.HandleFunc("/api/anki-note-types", f.handleNoteTypes)
	mux.HandleFunc("/api/anki-recreate", f.handleRecreate)
	mux.HandleFunc("/api/health/anki", f.handleAnkiHealth)
	mux.HandleFunc("/api/health/ollama", f.handleOllamaHealth)
	return httptest.NewServer(mux)
}

func (f *FakeBackend) SetDecks(decks []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decks = decks
}

func (f *FakeBackend) SetCards(cards []models.CardRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = cards
}

func (f *FakeBackend) SetNoteTypes(types []api.NoteType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteTypes = types
}

func (f *FakeBackend) SetAnkiUp(up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ankiUp = up
}

func (f *FakeBackend) SetOllamaUp(up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ollamaUp = up
}

// ScriptRecreate makes the recreate endpoint answer with a JSON envelope.
func (f *FakeBackend) ScriptRecreate(status int, resp api.RecreateResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recreateStatus = status
	f.recreateResponse = resp
	f.recreateRawBody = ""
	f.recreateRawContentType = ""
}

// ScriptRecreateRaw makes the recreate endpoint answer with a verbatim
// body. An empty contentType sends no Content-Type header at all.
func (f *FakeBackend) ScriptRecreateRaw(status int, contentType, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recreateStatus = status
	f.recreateRawBody = body
	f.recreateRawContentType = contentType
}

// CardQueries returns every query string the cards endpoint has seen.
func (f *FakeBackend) CardQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cardQueries...)
}

// RecreateCalls returns every captured recreate request.
func (f *FakeBackend) RecreateCalls() []CapturedRecreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CapturedRecreate(nil), f.recreateRequests...)
}

func (f *FakeBackend) handleDecks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	decks := append([]string(nil), f.decks...)
	f.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"success": true,
		"decks":   decks,
	})
}

func (f *FakeBackend) handleCards(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.cardQueries = append(f.cardQueries, r.URL.Query().Get("query"))
	cards := append([]models.CardRow(nil), f.cards...)
	f.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 || offset > len(cards) {
		offset = len(cards)
	}
	end := offset + limit
	if limit <= 0 || end > len(cards) {
		end = len(cards)
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"items":   cards[offset:end],
		"total":   len(cards),
	})
}

func (f *FakeBackend) handleNoteTypes(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	types := append([]api.NoteType(nil), f.noteTypes...)
	f.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"success": true,
		"items":   types,
	})
}

func (f *FakeBackend) handleRecreate(w http.ResponseWriter, r *http.Request) {
	var body api.RecreateRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.recreateRequests = append(f.recreateRequests, CapturedRecreate{
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      body,
	})
	status := f.recreateStatus
	resp := f.recreateResponse
	raw := f.recreateRawBody
	rawType := f.recreateRawContentType
	f.mu.Unlock()

	if raw != "" {
		if rawType == "" {
			// Suppress net/http's content sniffing so the client sees
			// a response with no Content-Type at all.
			w.Header()["Content-Type"] = nil
		} else {
			w.Header().Set("Content-Type", rawType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(raw))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *FakeBackend) handleAnkiHealth(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	up := f.ankiUp
	f.mu.Unlock()

	if up {
		writeJSON(w, api.AnkiHealth{OK: true, AnkiConnectVersion: 6})
		return
	}
	writeJSON(w, api.AnkiHealth{OK: false, Error: "anki is not running"})
}

func (f *FakeBackend) handleOllamaHealth(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	up := f.ollamaUp
	f.mu.Unlock()

	if up {
		writeJSON(w, api.OllamaHealth{OK: true, Model: "gemma2", ModelAvailable: true, TimeoutS: 30})
		return
	}
	writeJSON(w, api.OllamaHealth{OK: false, Error: "connection refused"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// MakeCards builds n review-queue rows in deck, with card ids counting up
// from 1001.
func MakeCards(deck string, n int) []models.CardRow {
	cards := make([]models.CardRow, n)
	for i := range cards {
		cards[i] = models.CardRow{
			CardID:    int64(1001 + i),
			NoteID:    int64(501 + i),
			DeckName:  deck,
			ModelName: "Basic",
			Queue:     models.QueueReview,
			Interval:  10,
			Factor:    2500,
			Reps:      3,
			Question:  "<b>Question</b> " + strconv.Itoa(i+1),
			Answer:    "Answer " + strconv.Itoa(i+1),
		}
	}
	return cards
}
