package operations

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/store"
	"github.com/google/uuid"
)

// DuplicateOffset is how far a duplicate is moved from its source so both
// stay visible on the canvas.
var DuplicateOffset = domain.Position{X: 40, Y: 40}

// PlacementArea bounds the random position of newly created intents.
var PlacementArea = domain.Position{X: 600, Y: 400}

const maxIDAttempts = 8

// Operations is the intent-level mutation layer on top of a Store.
type Operations struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
	rng    *rand.Rand
}

// Option configures Operations.
type Option func(*Operations)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Operations) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for id generation.
func WithClock(now func() time.Time) Option {
	return func(o *Operations) {
		o.now = now
	}
}

// WithRand sets the random source used for placement.
func WithRand(rng *rand.Rand) Option {
	return func(o *Operations) {
		o.rng = rng
	}
}

// New creates the operations layer for s.
func New(s *store.Store, opts ...Option) *Operations {
	o := &Operations{
		store:  s,
		logger: logging.NewNop(),
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create adds a fresh, empty, unprotected intent at a random position.
func (o *Operations) Create() (domain.Node, error) {
	id, err := o.freshID()
	if err != nil {
		return domain.Node{}, o.fail("create", "", err)
	}
	node := domain.Node{
		ID:              id,
		Label:           domain.DefaultLabel,
		TrainingPhrases: []string{},
		Responses:       []string{},
		Position: domain.Position{
			X: o.rng.Float64() * PlacementArea.X,
			Y: o.rng.Float64() * PlacementArea.Y,
		},
	}
	stored, err := o.store.AddNode(node)
	if err != nil {
		return domain.Node{}, o.fail("create", id, err)
	}
	o.logger.Info("intent created", "node_id", stored.ID)
	return stored, nil
}

// Duplicate copies the mutable fields of an intent into a new, unprotected
// intent offset from the original.
func (o *Operations) Duplicate(id string) (domain.Node, error) {
	src, ok := o.store.Node(id)
	if !ok {
		return domain.Node{}, o.fail("duplicate", id, fmt.Errorf("%w: node %q", domain.ErrNotFound, id))
	}
	newID, err := o.freshID()
	if err != nil {
		return domain.Node{}, o.fail("duplicate", id, err)
	}

	dup := src.Clone()
	dup.ID = newID
	dup.Label = src.Label + domain.CopySuffix
	dup.IsProtected = false
	dup.Position = domain.Position{
		X: src.Position.X + DuplicateOffset.X,
		Y: src.Position.Y + DuplicateOffset.Y,
	}

	stored, err := o.store.AddNode(dup)
	if err != nil {
		return domain.Node{}, o.fail("duplicate", id, err)
	}
	o.logger.Info("intent duplicated", "node_id", stored.ID, "source_id", id)
	return stored, nil
}

// CanRemove reports whether the intent exists and is not protected.
// Hosts ask for confirmation only when this returns true.
func (o *Operations) CanRemove(id string) bool {
	return o.store.CanRemove(id)
}

// Remove deletes an intent and its transitions. Callers invoke it only after
// the user affirmed the deletion. It returns false for protected or absent
// intents.
func (o *Operations) Remove(id string) bool {
	removed := o.store.RemoveNode(id)
	if removed {
		o.logger.Info("intent removed", "node_id", id)
	} else {
		o.logger.Debug("intent removal refused", "node_id", id)
	}
	return removed
}

// Connect adds a transition from source to target.
func (o *Operations) Connect(source, target string) (domain.Edge, error) {
	edge, err := o.store.AddEdge(source, target)
	if err != nil {
		return domain.Edge{}, o.fail("connect", source, err)
	}
	o.logger.Info("intents connected", "edge_id", edge.ID, "source", source, "target", target)
	return edge, nil
}

// Update merges an edit into an intent.
func (o *Operations) Update(id string, patch domain.NodePatch) (domain.Node, error) {
	node, err := o.store.UpdateNode(id, patch)
	if err != nil {
		return domain.Node{}, o.fail("update", id, err)
	}
	return node, nil
}

// Move records a drag gesture.
func (o *Operations) Move(id string, pos domain.Position) (domain.Node, error) {
	return o.Update(id, domain.NodePatch{Position: &pos})
}

func (o *Operations) freshID() (string, error) {
	for range maxIDAttempts {
		id := fmt.Sprintf("intent-%d-%s", o.now().UnixMilli(), uuid.NewString()[:8])
		if !o.store.Has(id) {
			return id, nil
		}
	}
	return "", errors.New("could not generate a unique intent id")
}

func (o *Operations) fail(op, id string, err error) error {
	o.logger.Warn("operation failed", "op", op, "node_id", id, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}
