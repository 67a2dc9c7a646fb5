// Package intent classifies chat messages with an ordered rule list and
// composes the replies.
package intent

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"Travia/internal/entity"
	"Travia/internal/knowledge"
	"Travia/internal/scoring"
	"Travia/internal/session"
	"Travia/internal/storage"
	"Travia/internal/telemetry"
	"Travia/internal/transport"
)

// HistorySink records searches and bookings.
type HistorySink interface {
	RecordSearch(ctx context.Context, e storage.HistoryEntry) error
}

// Options configures a Dispatcher. Zero values get defaults.
type Options struct {
	Extractor entity.Extractor
	Knowledge knowledge.Source
	History   HistorySink
	TopK      int
	Rand      rand.Source
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Meter     metric.Meter
}

// Dispatcher answers chat messages.
type Dispatcher struct {
	extractor entity.Extractor
	knowledge knowledge.Source
	history   HistorySink
	topK      int
	logger    *slog.Logger
	tracer    trace.Tracer

	intents  metric.Int64Counter
	duration metric.Float64Histogram

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(opts Options) (*Dispatcher, error) {
	d := &Dispatcher{
		extractor: opts.Extractor,
		knowledge: opts.Knowledge,
		history:   opts.History,
		topK:      opts.TopK,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
	}
	if d.extractor == (entity.Extractor{}) {
		d.extractor = entity.NewExtractor()
	}
	if d.knowledge == nil {
		d.knowledge = knowledge.StaticSource(nil)
	}
	if d.topK <= 0 {
		d.topK = knowledge.DefaultTopK
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	src := opts.Rand
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	d.rng = rand.New(src)

	tracer, meter := opts.Tracer, opts.Meter
	if tracer == nil || meter == nil {
		noopTracer, noopMeter := telemetry.Noop()
		if tracer == nil {
			tracer = noopTracer
		}
		if meter == nil {
			meter = noopMeter
		}
	}
	d.tracer = tracer

	var err error
	d.intents, err = meter.Int64Counter("travia.intent.count",
		metric.WithDescription("Messages handled, by intent"))
	if err != nil {
		return nil, err
	}
	d.duration, err = meter.Float64Histogram("travia.dispatch.duration",
		metric.WithDescription("Time spent handling a message"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Handle answers message against catalog, updating st. It never fails:
// every problem degrades to a reply.
func (d *Dispatcher) Handle(ctx context.Context, st *session.State, message string, catalog []transport.Option) string {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "dispatch")
	defer span.End()

	in, reply := d.dispatch(ctx, st, message, catalog)

	attrs := attribute.String("intent", string(in))
	span.SetAttributes(attrs)
	d.intents.Add(ctx, 1, metric.WithAttributes(attrs))
	d.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs))
	d.logger.Debug("message dispatched", "intent", in, "catalog_size", len(catalog))
	return reply
}

func (d *Dispatcher) dispatch(ctx context.Context, st *session.State, message string, catalog []transport.Option) (Intent, string) {
	text := strings.TrimSpace(message)
	st.LastQuery = text
	if text == "" {
		return IntentEmpty, emptyReply
	}

	lower := strings.ToLower(text)
	tok := tokenize(text)

	if tok.hasAny(greetingWords) {
		if st.Name != "" {
			return IntentGreeting, namedGreeting(st.Name)
		}
		return IntentGreeting, d.pick(greetingReplies)
	}

	if name, ok := tok.nameAfter(); ok {
		if name != "" {
			name = titleCase(name)
			st.Name = name
		}
		return IntentName, nameReply(name)
	}

	if tok.has("your name") {
		return IntentIdentity, identityReply
	}

	if st.LastBest != nil && tok.hasAny(affirmationWords) {
		best := *st.LastBest
		d.record(ctx, storage.HistoryEntry{
			Origin:      best.Origin,
			Destination: best.Destination,
			Mode:        string(best.Mode),
			Priority:    storage.PriorityBooking,
		})
		return IntentBooking, bookingReply(best)
	}

	if tok.hasAny(rushWords) {
		return IntentRush, rushReply
	}
	if tok.hasAny(platformWords) {
		return IntentPlatforms, platformsReply()
	}
	if tok.hasAny(prepareWords) {
		return IntentPrepare, prepareReply
	}

	if route, ok := d.route(text, lower, catalog); ok {
		return IntentRoute, d.answerRoute(ctx, st, tok, lower, route, catalog)
	}

	if tok.hasAny(cheapestWords) {
		if len(catalog) == 0 {
			return IntentCheapest, noDataReply
		}
		sorted := make([]transport.Option, len(catalog))
		copy(sorted, catalog)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
		best := sorted[0]
		st.LastBest = &best
		return IntentCheapest, cheapestIntro + optionCard(best)
	}

	if tok.hasAny(knowledgeWords) {
		docs, err := d.knowledge.Documents(ctx)
		if err != nil {
			d.logger.Warn("failed to load knowledge base", "error", err)
		}
		if hits := knowledge.Retrieve(text, docs, d.topK); len(hits) > 0 {
			return IntentKnowledge, knowledgeReply(hits[0])
		}
		return IntentKnowledge, safetyTipsReply
	}

	if tok.hasAny(thanksWords) {
		return IntentThanks, thanksReply
	}
	return IntentFallback, fallbackReply
}

// route extracts the cities, fuzzy against the catalog first and the
// literal from/to split second.
func (d *Dispatcher) route(text, lower string, catalog []transport.Option) (entity.Route, bool) {
	if r := d.extractor.Extract(text, entity.KnownCities(catalog)); r.Found() {
		return r, true
	}
	return literalRoute(lower)
}

func (d *Dispatcher) answerRoute(ctx context.Context, st *session.State, tok tokens, lower string, route entity.Route, catalog []transport.Option) string {
	filter := transport.Filter{
		Origin:      route.Origin,
		Destination: route.Destination,
		Mode:        tok.mode(),
	}
	matches := filter.Apply(catalog)
	if len(matches) == 0 {
		return notFoundReply(route.Origin, route.Destination, filter.Mode)
	}

	priority := tok.priority()
	var ranked []scoring.Ranked
	maxBudget, hasBudget := budget(lower)
	if hasBudget {
		ranked = scoring.RankWithBudget(matches, priority, maxBudget)
	} else {
		ranked = scoring.Rank(matches, priority)
	}
	if len(ranked) == 0 {
		return overBudgetReply(route.Origin, route.Destination, maxBudget)
	}

	best := ranked[0].Option
	st.LastBest = &best
	d.record(ctx, storage.HistoryEntry{
		Origin:      route.Origin,
		Destination: route.Destination,
		Mode:        string(best.Mode),
		Priority:    string(priority),
	})
	d.logger.Debug("route ranked",
		"origin", route.Origin,
		"destination", route.Destination,
		"strategy", route.Strategy,
		"priority", priority,
		"candidates", len(ranked))
	return optionCard(best)
}

// record appends to the history sink. Failures are logged and dropped.
func (d *Dispatcher) record(ctx context.Context, e storage.HistoryEntry) {
	if d.history == nil {
		return
	}
	if err := d.history.RecordSearch(ctx, e); err != nil {
		d.logger.Warn("failed to record history", "error", err, "priority", e.Priority)
	}
}

func (d *Dispatcher) pick(choices []string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return choices[d.rng.Intn(len(choices))]
}
