package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultAPIURL is the public deck-of-cards service
const DefaultAPIURL = "https://deckofcardsapi.com"

// remoteCard is a card as the deck API reports it
type remoteCard struct {
	Code  string `json:"code"`
	Value string `json:"value"`
	Suit  string `json:"suit"`
	Image string `json:"image"`
}

type newDeckResponse struct {
	Success   bool   `json:"success"`
	DeckID    string `json:"deck_id"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

type drawResponse struct {
	Success   bool         `json:"success"`
	DeckID    string       `json:"deck_id"`
	Cards     []remoteCard `json:"cards"`
	Remaining int          `json:"remaining"`
	Error     string       `json:"error,omitempty"`
}

// RemoteSource deals from the HTTP deck API. When the API cannot be reached
// the shoe keeps dealing from a local deck that excludes every card it has
// already handed out.
type RemoteSource struct {
	baseURL  string
	client   *http.Client
	fallback *LocalSource
	logger   *log.Logger
}

// NewRemoteSource creates a deck API client. fallback deals when the API is down.
func NewRemoteSource(baseURL string, timeout time.Duration, fallback *LocalSource, logger *log.Logger) *RemoteSource {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if fallback == nil {
		fallback = NewLocalSource(nil)
	}
	return &RemoteSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger.WithPrefix("cards"),
	}
}

// NewShoe asks the API for a freshly shuffled single deck
func (s *RemoteSource) NewShoe(ctx context.Context) (Shoe, error) {
	shoe := &remoteShoe{source: s}

	deckID, err := s.newDeck(ctx)
	if err != nil {
		s.logger.Warn("Deck API unavailable, dealing locally", "error", err)
		shoe.local = s.fallback.shoeWithout(nil)
		return shoe, nil
	}

	shoe.deckID = deckID
	s.logger.Debug("Opened remote deck", "deckId", deckID)
	return shoe, nil
}

func (s *RemoteSource) newDeck(ctx context.Context) (string, error) {
	var resp newDeckResponse
	if err := s.get(ctx, "/api/deck/new/shuffle/", url.Values{"deck_count": {"1"}}, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.DeckID == "" {
		return "", fmt.Errorf("deck api: new deck refused: %s", resp.Error)
	}
	return resp.DeckID, nil
}

func (s *RemoteSource) draw(ctx context.Context, deckID string, n int) ([]Card, error) {
	var resp drawResponse
	path := "/api/deck/" + url.PathEscape(deckID) + "/draw/"
	if err := s.get(ctx, path, url.Values{"count": {strconv.Itoa(n)}}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Cards) < n {
		if resp.Remaining < n {
			return nil, fmt.Errorf("%w: deck api has %d left", ErrDeckExhausted, resp.Remaining)
		}
		return nil, fmt.Errorf("deck api: draw refused: %s", resp.Error)
	}

	cards := make([]Card, 0, n)
	for _, rc := range resp.Cards {
		card, err := ParseCard(rc.Code)
		if err != nil {
			return nil, fmt.Errorf("deck api: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (s *RemoteSource) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 500 {
		return fmt.Errorf("deck api: %s", res.Status)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("deck api: decode %s: %w", path, err)
	}
	return nil
}

type remoteShoe struct {
	source *RemoteSource
	mu     sync.Mutex
	deckID string
	dealt  []Card
	local  *localShoe
}

func (s *remoteShoe) Draw(ctx context.Context, n int) ([]Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.local == nil {
		cards, err := s.source.draw(ctx, s.deckID, n)
		if err == nil {
			s.dealt = append(s.dealt, cards...)
			return cards, nil
		}
		if errors.Is(err, ErrDeckExhausted) {
			return nil, err
		}
		s.source.logger.Warn("Deck API draw failed, dealing locally", "deckId", s.deckID, "error", err)
		s.local = s.source.fallback.shoeWithout(s.dealt)
	}

	return s.local.Draw(ctx, n)
}

// ImageURL returns the API's image path for a card. The API spells ten as "0".
func ImageURL(baseURL string, c Card) string {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	rank := c.Rank.String()
	if c.Rank == Ten {
		rank = "0"
	}
	return strings.TrimRight(baseURL, "/") + "/static/img/" + rank + c.Suit.String() + ".png"
}
