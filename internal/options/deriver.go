package options

import (
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 32

// ErrMissingProjection is returned when a Deriver is configured without a
// value projection.
var ErrMissingProjection = errors.New("options: missing value projection")

// Config wires the four injected functions of a selector. Only ValueOf is
// required. LabelSet, when set, takes precedence over LabelOf.
type Config[V any] struct {
	Name      string
	ValueOf   func(Record) V
	LabelOf   LabelFunc[V]
	LabelSet  LabelSetFunc[V]
	Predicate Predicate[V]
	Arrange   ArrangeFunc[V]
	Resolve   ResolveFunc[V]
	Logger    *slog.Logger
	CacheSize int
}

type arrangeKey struct {
	records    uint64
	constraint uint64
}

// Deriver turns record sets into arranged, constrained options and validates
// selections against them. Results are memoized by record-set fingerprint and
// constraint fingerprint; the configured functions are fixed for the life of
// the Deriver, so they never take part in cache keys.
//
// Returned options and arrangements are shared with the cache and must be
// treated as read-only.
type Deriver[V any] struct {
	cfg      Config[V]
	raw      *lru.Cache[uint64, []Option[V]]
	arranged *lru.Cache[arrangeKey, Arrangement[V]]
	log      *slog.Logger
	seq      uint64
}

func New[V any](cfg Config[V]) (*Deriver[V], error) {
	if cfg.ValueOf == nil {
		return nil, ErrMissingProjection
	}
	if cfg.LabelOf == nil {
		cfg.LabelOf = DefaultLabel[V]
	}
	if cfg.Predicate == nil {
		cfg.Predicate = MatchAny[V]
	}
	if cfg.Arrange == nil {
		cfg.Arrange = SortByLabel[V]
	}
	if cfg.Resolve == nil {
		cfg.Resolve = FirstEnabled[V]
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	raw, err := lru.New[uint64, []Option[V]](size)
	if err != nil {
		return nil, err
	}
	arranged, err := lru.New[arrangeKey, Arrangement[V]](size)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Deriver[V]{
		cfg:      cfg,
		raw:      raw,
		arranged: arranged,
		log:      logger.With(slog.String("selector", cfg.Name)),
	}, nil
}

// MustNew is New for static configurations; it panics on a bad config.
func MustNew[V any](cfg Config[V]) *Deriver[V] {
	d, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Deriver[V]) Name() string {
	return d.cfg.Name
}

// Options returns the grouped, labeled options for set, without enabled
// status.
func (d *Deriver[V]) Options(set RecordSet) []Option[V] {
	if opts, ok := d.raw.Get(set.Fingerprint); ok {
		return opts
	}
	groups := GroupRecords(set.Records, d.cfg.ValueOf)
	var opts []Option[V]
	if d.cfg.LabelSet != nil {
		opts = labelEach(groups, d.cfg.LabelSet(set.Records))
	} else {
		opts = LabelGroups(groups, set.Records, d.cfg.LabelOf)
	}
	d.raw.Add(set.Fingerprint, opts)
	d.log.Debug("options derived",
		slog.Int("records", set.Len()),
		slog.Int("options", len(opts)))
	return opts
}

// Arrange returns the constrained options of set under c, arranged for
// presentation.
func (d *Deriver[V]) Arrange(set RecordSet, c Constraint) Arrangement[V] {
	key := arrangeKey{records: set.Fingerprint, constraint: Fingerprint(c)}
	if a, ok := d.arranged.Get(key); ok {
		return a
	}
	a := d.cfg.Arrange(Constrain(d.Options(set), c, d.cfg.Predicate))
	d.arranged.Add(key, a)
	return a
}

// View is the result of one evaluation cycle. NeedsCorrection is set when
// the supplied selection was invalid; Correction then holds the replacement
// the owner should adopt. Current is the option to display, which already
// reflects the correction.
type View[V any] struct {
	Seq             uint64
	Name            string
	Arrangement     Arrangement[V]
	Selection       Selection[V]
	Current         Option[V]
	HasCurrent      bool
	Correction      Selection[V]
	NeedsCorrection bool
}

// Evaluate derives the arranged options of set under c and validates current
// against them. It never notifies anyone; see View.Effect.
func (d *Deriver[V]) Evaluate(set RecordSet, c Constraint, current Selection[V]) View[V] {
	d.seq++
	a := d.Arrange(set, c)
	v := View[V]{
		Seq:         d.seq,
		Name:        d.cfg.Name,
		Arrangement: a,
		Selection:   current,
	}
	shown := current
	// A replacement equal to the current selection (Unresolved with nothing
	// enabled) is not re-emitted, so corrections cannot loop.
	if res := Resolve(current, a, d.cfg.Resolve); !res.Valid && !res.Replacement.Equal(current) {
		v.Correction = res.Replacement
		v.NeedsCorrection = true
		shown = res.Replacement
		d.log.Debug("selection invalid",
			slog.Uint64("seq", v.Seq),
			slog.String("selection", current.String()),
			slog.String("replacement", res.Replacement.String()))
	}
	v.Current, v.HasCurrent = OptionFor(shown, a.Flatten())
	return v
}

// Effect returns the deferred correction for this view, or nil when none is
// needed. The host runs it once the frame built from this view is committed.
func (v View[V]) Effect(notify func(Selection[V])) func() {
	if !v.NeedsCorrection || notify == nil {
		return nil
	}
	replacement := v.Correction
	return func() {
		notify(replacement)
	}
}
