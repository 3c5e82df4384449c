package llm

import (
	"errors"
	"time"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"go.uber.org/zap"
)

// Recoverer turns raw model text into a record. It holds no mutable state
// and is safe for concurrent use.
type Recoverer struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Recoverer.
type Option func(*Recoverer)

// WithClock overrides the clock used for placeholder dates.
func WithClock(now func() time.Time) Option {
	return func(r *Recoverer) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRecoverer(logger *zap.Logger, opts ...Option) *Recoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recoverer{logger: logger, now: defaultNow}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Recover always returns a usable record. The verdict is advisory.
func (r *Recoverer) Recover(raw string, kind constants.DocumentKind) (Record, Verdict) {
	if kind != constants.KindInvoice {
		kind = constants.KindReceipt
	}

	rec, outcome := r.recoverStructural(raw, kind)
	if rec == nil {
		var err error
		rec, outcome, err = r.runFallback(raw, kind)
		if err != nil {
			// unreachable with the placeholder tier in place
			r.logger.Error("llm.recover.fallback_exhausted", zap.Error(err))
			rec, _ = r.placeholder(raw, kind)
			outcome = OutcomePlaceholder
		}
	}
	rec = CleanRecord(Normalize(rec, kind))

	verdict := Verdict{HasSignal: Validate(rec, kind), Outcome: outcome}
	if err := CheckSchema(rec, kind); err != nil {
		r.logger.Warn("llm.recover.schema_mismatch",
			zap.String("kind", string(kind)),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
	r.logger.Info("llm.recover.done",
		zap.String("kind", string(kind)),
		zap.String("outcome", string(outcome)),
		zap.Bool("has_signal", verdict.HasSignal),
		zap.Int("raw_len", len(raw)),
		zap.Int("items", len(rec.Items())))
	return rec, verdict
}

// recoverStructural runs sanitize, extract, repair and parse. A nil record
// means the fallback chain has to take over.
func (r *Recoverer) recoverStructural(raw string, kind constants.DocumentKind) (Record, Outcome) {
	span, err := ExtractBalanced(SanitizeText(raw))
	if err != nil {
		r.logger.Debug("llm.recover.no_bounds", zap.String("kind", string(kind)), zap.Error(err))
		return nil, ""
	}
	rec, err := ParseStructure(RepairValues(span))
	if err != nil {
		var pe *ParseError
		fields := []zap.Field{zap.String("kind", string(kind)), zap.Error(err)}
		if errors.As(err, &pe) {
			fields = append(fields, zap.Int("span_len", len(pe.Span)))
		}
		r.logger.Debug("llm.recover.parse_failed", fields...)
		return nil, ""
	}
	return rec, OutcomeStructural
}

// runFallback tries each tier against the original text, first success wins.
func (r *Recoverer) runFallback(raw string, kind constants.DocumentKind) (Record, Outcome, error) {
	for _, s := range r.fallbackChain() {
		rec, ok := s.attempt(raw, kind)
		if !ok {
			r.logger.Debug("llm.recover.tier_declined", zap.String("tier", string(s.outcome)))
			continue
		}
		r.logger.Info("llm.recover.fallback",
			zap.String("kind", string(kind)),
			zap.String("tier", string(s.outcome)))
		return rec, s.outcome, nil
	}
	return nil, "", ErrFallbackExhausted
}

var defaultRecoverer = NewRecoverer(nil)

// Recover runs the pipeline with a silent logger and the wall clock.
func Recover(raw string, kind constants.DocumentKind) (Record, Verdict) {
	return defaultRecoverer.Recover(raw, kind)
}
