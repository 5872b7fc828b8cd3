package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/fillblank/internal/engine"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/storage"
)

// Service holds the card catalog: an in-memory snapshot of every card set in storage
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	mu     sync.RWMutex
	sets   []model.CardSet
	black  map[model.CardID]model.BlackCard
	white  map[model.CardID]model.WhiteCard
	loaded bool
}

// New creates a new catalog Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		black:   make(map[model.CardID]model.BlackCard),
		white:   make(map[model.CardID]model.WhiteCard),
	}
}

var _ engine.Catalog = (*Service)(nil)

// SetSummary describes one card set
type SetSummary struct {
	Name        string
	Description string
	BlackCount  int
	WhiteCount  int
}

// ImportResult reports how many cards an import added to one set
type ImportResult struct {
	CardSet    string
	BlackCount int
	WhiteCount int
}

// importFile is the on-disk card set format, keyed by card set name
type importFile map[string]importSet

type importSet struct {
	Description string        `json:"description"`
	BlackCards  []importBlack `json:"blackcards"`
	WhiteCards  []importWhite `json:"whitecards"`
}

type importBlack struct {
	Text string `json:"text"`
	Pick int    `json:"pick"`
}

type importWhite struct {
	Text string `json:"text"`
}

// LoadFromStorage replaces the snapshot with the card sets currently in storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	sets, err := s.storage.GetCardSets(ctx)
	if err != nil {
		return err
	}
	s.load(sets)
	return nil
}

// ImportFile imports card sets from a JSON file
func (s *Service) ImportFile(ctx context.Context, path string, replace bool) ([]ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return s.Import(ctx, file, replace)
}

// Import reads card sets in JSON form and saves them.
// Nothing is saved unless every set in the input is valid. Existing sets are only
// overwritten when replace is true; otherwise they fail with ErrCardSetExists.
// A replacement keeps the IDs of cards whose text and pick are unchanged. Cards it
// drops leave the catalog, and games still holding them stop showing them.
func (s *Service) Import(ctx context.Context, r io.Reader, replace bool) ([]ImportResult, error) {
	var file importFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid card set file: %w", err)
	}

	existing, err := s.storage.GetCardSets(ctx)
	if err != nil {
		return nil, err
	}

	// New IDs continue past every card already stored, so an ID is never reused for different text
	var nextBlack, nextWhite model.CardID
	existingNames := make(map[string]model.CardSet, len(existing))
	for _, set := range existing {
		existingNames[set.Name] = set
		for _, c := range set.BlackCards {
			nextBlack = max(nextBlack, c.ID)
		}
		for _, c := range set.WhiteCards {
			nextWhite = max(nextWhite, c.ID)
		}
	}

	names := make([]string, 0, len(file))
	for name := range file {
		names = append(names, name)
	}
	slices.Sort(names)

	sets := make([]model.CardSet, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("card set with empty name")
		}
		previous, ok := existingNames[name]
		if ok && !replace {
			return nil, fmt.Errorf("%s: %w", name, model.ErrCardSetExists)
		}
		// Unchanged cards of a replaced set keep their IDs, so games holding them still resolve them
		kept := newKeptIDs(previous)

		in := file[name]
		set := model.CardSet{Name: name, Description: in.Description}
		for i, b := range in.BlackCards {
			text := strings.TrimSpace(b.Text)
			if text == "" {
				return nil, fmt.Errorf("%s: black card %d has no text", name, i+1)
			}
			pick := b.Pick
			if pick <= 0 {
				pick = max(1, model.CountBlanks(text))
			}
			id, ok := kept.black(text, pick)
			if !ok {
				nextBlack++
				id = nextBlack
			}
			set.BlackCards = append(set.BlackCards, model.BlackCard{ID: id, Text: text, Pick: pick, CardSet: name})
		}
		for i, w := range in.WhiteCards {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				return nil, fmt.Errorf("%s: white card %d has no text", name, i+1)
			}
			id, ok := kept.white(text)
			if !ok {
				nextWhite++
				id = nextWhite
			}
			set.WhiteCards = append(set.WhiteCards, model.WhiteCard{ID: id, Text: text, CardSet: name})
		}
		sets = append(sets, set)
	}

	results := make([]ImportResult, 0, len(sets))
	for i := range sets {
		set := &sets[i]
		if _, ok := existingNames[set.Name]; ok {
			s.logger.Info("replacing card set", slog.String("card_set", set.Name))
			if err := s.storage.DeleteCardSet(ctx, set.Name); err != nil {
				return nil, fmt.Errorf("failed to delete %s: %w", set.Name, err)
			}
		}
		if err := s.storage.SaveCardSet(ctx, set); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", set.Name, err)
		}

		s.logger.Info("imported card set",
			slog.String("card_set", set.Name),
			slog.Int("black_cards", len(set.BlackCards)),
			slog.Int("white_cards", len(set.WhiteCards)),
		)
		results = append(results, ImportResult{
			CardSet:    set.Name,
			BlackCount: len(set.BlackCards),
			WhiteCount: len(set.WhiteCards),
		})
	}

	if err := s.LoadFromStorage(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

type blackKey struct {
	text string
	pick int
}

// keptIDs hands out the IDs of a set's current cards to identical cards in its replacement.
// Each ID is handed out at most once.
type keptIDs struct {
	blacks map[blackKey][]model.CardID
	whites map[string][]model.CardID
}

func newKeptIDs(set model.CardSet) *keptIDs {
	k := &keptIDs{
		blacks: make(map[blackKey][]model.CardID),
		whites: make(map[string][]model.CardID),
	}
	for _, c := range set.BlackCards {
		key := blackKey{c.Text, c.Pick}
		k.blacks[key] = append(k.blacks[key], c.ID)
	}
	for _, c := range set.WhiteCards {
		k.whites[c.Text] = append(k.whites[c.Text], c.ID)
	}
	return k
}

func (k *keptIDs) black(text string, pick int) (model.CardID, bool) {
	return take(k.blacks, blackKey{text, pick})
}

func (k *keptIDs) white(text string) (model.CardID, bool) {
	return take(k.whites, text)
}

func take[K comparable](ids map[K][]model.CardID, key K) (model.CardID, bool) {
	queue := ids[key]
	if len(queue) == 0 {
		return model.NoCard, false
	}
	ids[key] = queue[1:]
	return queue[0], true
}

// LoadSets directly loads card sets without touching storage (useful for testing)
func (s *Service) LoadSets(sets []model.CardSet) {
	s.load(sets)
}

func (s *Service) load(sets []model.CardSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets = slices.Clone(sets)
	slices.SortFunc(s.sets, func(a, b model.CardSet) int {
		return strings.Compare(a.Name, b.Name)
	})
	s.black = make(map[model.CardID]model.BlackCard)
	s.white = make(map[model.CardID]model.WhiteCard)
	for _, set := range s.sets {
		for _, c := range set.BlackCards {
			s.black[c.ID] = c
		}
		for _, c := range set.WhiteCards {
			s.white[c.ID] = c
		}
	}
	s.loaded = true
}

// IsLoaded returns whether the catalog has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// CardSets summarises every loaded set, sorted by name
func (s *Service) CardSets() []SetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]SetSummary, 0, len(s.sets))
	for _, set := range s.sets {
		summaries = append(summaries, SetSummary{
			Name:        set.Name,
			Description: set.Description,
			BlackCount:  len(set.BlackCards),
			WhiteCount:  len(set.WhiteCards),
		})
	}
	return summaries
}

// Validate checks that every named set exists and that together they can run a game
func (s *Service) Validate(names []string) error {
	s.mu.RLock()
	known := make(map[string]struct{}, len(s.sets))
	for _, set := range s.sets {
		known[set.Name] = struct{}{}
	}
	s.mu.RUnlock()

	for _, name := range names {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%s: %w", name, model.ErrCardSetNotFound)
		}
	}
	if len(s.BlackCards(names)) == 0 || len(s.WhiteCardIDs(names)) == 0 {
		return model.ErrEmptyCatalog
	}
	return nil
}

func (s *Service) BlackCard(id model.CardID) (model.BlackCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.black[id]
	return card, ok
}

func (s *Service) WhiteCard(id model.CardID) (model.WhiteCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.white[id]
	return card, ok
}

func (s *Service) BlackCards(sets []string) []model.BlackCard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cards []model.BlackCard
	for _, set := range s.sets {
		if len(sets) == 0 || slices.Contains(sets, set.Name) {
			cards = append(cards, set.BlackCards...)
		}
	}
	slices.SortFunc(cards, func(a, b model.BlackCard) int { return int(a.ID - b.ID) })
	return cards
}

func (s *Service) WhiteCardIDs(sets []string) []model.CardID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []model.CardID
	for _, set := range s.sets {
		if len(sets) == 0 || slices.Contains(sets, set.Name) {
			for _, c := range set.WhiteCards {
				ids = append(ids, c.ID)
			}
		}
	}
	slices.Sort(ids)
	return ids
}
