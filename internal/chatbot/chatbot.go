package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"Travia/internal/config"
	"Travia/internal/entity"
	"Travia/internal/intent"
	"Travia/internal/knowledge"
	"Travia/internal/offers"
	"Travia/internal/session"
	"Travia/internal/storage"
	"Travia/internal/telemetry"
	"Travia/internal/transport"
)

// Comparison is one catalog option with its simulated website offers.
type Comparison struct {
	Transport transport.Option `json:"transport"`
	Offers    []offers.Offer   `json:"offers"`
	BestOffer *offers.Offer    `json:"best_offer"`
}

// ChatBot represents the main application
type ChatBot struct {
	config     *config.Config
	db         *storage.DB
	dispatcher *intent.Dispatcher
	sessions   *session.Store
	simulator  *offers.Simulator
	logger     *slog.Logger
	tracer     trace.Tracer

	offersSimulated metric.Int64Counter

	// sessionID is the REPL's own session.
	sessionID string
}

// NewChatBot creates a new ChatBot instance
func NewChatBot(cfg *config.Config, db *storage.DB, kb knowledge.Source, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) (*ChatBot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil || meter == nil {
		noopTracer, noopMeter := telemetry.Noop()
		if tracer == nil {
			tracer = noopTracer
		}
		if meter == nil {
			meter = noopMeter
		}
	}

	dispatcher, err := intent.NewDispatcher(intent.Options{
		Extractor: entity.Extractor{Threshold: cfg.Entity.Threshold, Limit: cfg.Entity.Limit},
		Knowledge: kb,
		History:   db,
		TopK:      cfg.Knowledge.TopK,
		Rand:      randSource(cfg.Offers.Seed),
		Logger:    logger,
		Tracer:    tracer,
		Meter:     meter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	simulated, err := meter.Int64Counter("travia.offers.simulated",
		metric.WithDescription("Simulated website offers generated"))
	if err != nil {
		return nil, fmt.Errorf("failed to create offers counter: %w", err)
	}

	if cfg.Log.Debug {
		logger.Info("debug mode enabled")
	}

	return &ChatBot{
		config:          cfg,
		db:              db,
		dispatcher:      dispatcher,
		sessions:        session.NewStore(cfg.Session.TTL, cfg.Session.CleanupInterval),
		simulator:       offers.NewSimulator(randSource(cfg.Offers.Seed)),
		logger:          logger,
		tracer:          tracer,
		offersSimulated: simulated,
		sessionID:       session.NewID(),
	}, nil
}

func randSource(seed int64) rand.Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.NewSource(seed)
}

// Reply answers message within sessionID, starting a new session when the
// id is empty. It returns the reply and the session id used.
func (cb *ChatBot) Reply(ctx context.Context, sessionID, message string) (string, string, error) {
	if sessionID == "" {
		sessionID = session.NewID()
	}

	catalog, err := cb.db.All(ctx)
	if err != nil {
		return "", sessionID, fmt.Errorf("failed to load catalog: %w", err)
	}

	mem, release := cb.sessions.Acquire(sessionID)
	defer release()

	reply := cb.dispatcher.Handle(ctx, &mem.State, message, catalog)
	return reply, sessionID, nil
}

// Session returns the remembered state of a session.
func (cb *ChatBot) Session(sessionID string) (session.State, bool) {
	return cb.sessions.Peek(sessionID)
}

// SessionCount returns the number of live sessions.
func (cb *ChatBot) SessionCount() int {
	return cb.sessions.Count()
}

// Search returns catalog rows matching f.
func (cb *ChatBot) Search(ctx context.Context, f transport.Filter) ([]transport.Option, error) {
	return cb.db.Search(ctx, f)
}

// Compare simulates website offers for every option matching f.
func (cb *ChatBot) Compare(ctx context.Context, f transport.Filter) ([]Comparison, error) {
	matches, err := cb.db.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]Comparison, 0, len(matches))
	for _, opt := range matches {
		list := cb.simulator.Simulate(opt, cb.config.Offers.Sites)
		c := Comparison{Transport: opt, Offers: list}
		if best, ok := offers.PickBest(list); ok {
			c.BestOffer = &best
		}
		cb.offersSimulated.Add(ctx, int64(len(list)),
			metric.WithAttributes(attribute.String("mode", string(opt.Mode))))
		out = append(out, c)
	}
	return out, nil
}

// Book records a simulated booking of the option with the given id.
func (cb *ChatBot) Book(ctx context.Context, id string) (transport.Option, error) {
	opt, err := cb.db.Get(ctx, id)
	if err != nil {
		return transport.Option{}, err
	}
	err = cb.db.RecordSearch(ctx, storage.HistoryEntry{
		Origin:      opt.Origin,
		Destination: opt.Destination,
		Mode:        string(opt.Mode),
		Priority:    storage.PriorityBooking,
	})
	if err != nil {
		return transport.Option{}, err
	}
	cb.logger.Info("booking recorded", "id", opt.ID, "mode", opt.Mode)
	return opt, nil
}

// AddRoute inserts a catalog row, keeping the submitted record as its extra
// JSON.
func (cb *ChatBot) AddRoute(ctx context.Context, opt transport.Option) error {
	extra, err := json.Marshal(opt)
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}
	return cb.db.InsertOption(ctx, opt, string(extra))
}

// History returns history rows newest first, optionally filtered by
// priority.
func (cb *ChatBot) History(ctx context.Context, priority string, limit int) ([]storage.HistoryEntry, error) {
	return cb.db.History(ctx, priority, limit)
}

// ModeCounts returns catalog rows per mode.
func (cb *ChatBot) ModeCounts(ctx context.Context) ([]storage.ModeCount, error) {
	return cb.db.ModeCounts(ctx)
}
