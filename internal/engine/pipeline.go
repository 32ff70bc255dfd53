package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"promptforge/internal/catalog"
)

// State is the pipeline position of a request. A request moves through
// the states in order and terminates at Delivered or Rejected; there are
// no retries, since every stage is deterministic.
type State string

const (
	StateReceived         State = "received"
	StateClassified       State = "classified"
	StateLayersSelected   State = "layers_selected"
	StateMandatesResolved State = "mandates_resolved"
	StateAssembled        State = "assembled"
	StateScored           State = "scored"
	StateDelivered        State = "delivered"
	StateRejected         State = "rejected"
)

// Request is the structured input to a single pipeline pass. All content
// fields are caller-supplied; the engine arranges and grades them but
// never generates text.
type Request struct {
	Text              string                           `yaml:"text"`
	ExplicitPatternID int                              `yaml:"explicit_pattern_id,omitempty"`
	ComplexityTier    catalog.Tier                     `yaml:"complexity_tier"`
	FeatureTypes      []catalog.FeatureTag             `yaml:"feature_types,omitempty"`
	IncludeLayers     []catalog.LayerID                `yaml:"include_layers,omitempty"`
	ExcludeLayers     []catalog.LayerID                `yaml:"exclude_layers,omitempty"`
	Persona           string                           `yaml:"persona"`
	ContextPayloads   map[catalog.LayerID]string       `yaml:"context_payloads,omitempty"`
	Task              TaskSpec                         `yaml:"task"`
	Requirements      RequirementsSpec                 `yaml:"requirements"`
	MandateTexts      map[catalog.CommandmentID]string `yaml:"mandate_texts,omitempty"`
	Meta              string                           `yaml:"meta_instructions"`
	Output            OutputSpec                       `yaml:"output"`
}

// overrides translates the request's layer lists into selector
// overrides; nil when the caller expressed no explicit layer intent.
func (r Request) overrides() *LayerOverrides {
	if len(r.IncludeLayers) == 0 && len(r.ExcludeLayers) == 0 {
		return nil
	}
	ov := &LayerOverrides{
		Include: make(map[catalog.LayerID]bool, len(r.IncludeLayers)),
		Exclude: make(map[catalog.LayerID]bool, len(r.ExcludeLayers)),
	}
	for _, id := range r.IncludeLayers {
		ov.Include[id] = true
	}
	for _, id := range r.ExcludeLayers {
		ov.Exclude[id] = true
	}
	return ov
}

// Result is the output of one pipeline pass: the assembled prompt, its
// score report, and the classification that drove both. It is owned by
// the calling request and not retained by the engine.
type Result struct {
	RequestID      string
	Classification ClassificationResult
	Layers         []*catalog.ContextLayer
	Mandates       []*catalog.Commandment
	Prompt         *AssembledPrompt
	Report         *ScoreReport
	State          State
}

// Engine chains the pipeline stages over a shared read-only catalog.
// It is safe for concurrent use: the catalog is immutable and every
// stage is a pure function.
type Engine struct {
	catalog    *catalog.Catalog
	classifier *Classifier
	layers     *LayerSelector
	mandates   *MandateResolver
	assembler  *Assembler
	scorer     *Scorer
	logger     *zap.Logger
}

// NewEngine creates an engine over the given catalog. A nil logger
// disables logging.
func NewEngine(cat *catalog.Catalog, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog:    cat,
		classifier: NewClassifier(cat),
		layers:     NewLayerSelector(cat),
		mandates:   NewMandateResolver(cat),
		assembler:  NewAssembler(),
		scorer:     NewScorer(nil),
		logger:     logger,
	}
}

// Classify exposes the classification stage on its own, for callers that
// only need the pattern decision.
func (e *Engine) Classify(requestText string, explicitPatternID int) (ClassificationResult, error) {
	return e.classifier.Classify(requestText, explicitPatternID)
}

// Build runs the full pipeline for one request: classify, select layers,
// resolve mandates, assemble, score. It fails on an invalid explicit
// hint or a missing required layer payload; classification and scoring
// themselves never fail.
func (e *Engine) Build(req Request) (*Result, error) {
	reqID := uuid.NewString()
	log := e.logger.With(zap.String("request_id", reqID))
	log.Debug("request received", zap.String("state", string(StateReceived)))

	classification, err := e.classifier.Classify(req.Text, req.ExplicitPatternID)
	if err != nil {
		log.Warn("request rejected",
			zap.String("state", string(StateRejected)),
			zap.Error(err))
		return nil, err
	}
	log.Debug("request classified",
		zap.String("state", string(StateClassified)),
		zap.Int("pattern_id", classification.Pattern.ID),
		zap.String("pattern", classification.Pattern.Name),
		zap.Float64("confidence", classification.Confidence))

	tier := req.ComplexityTier
	if !catalog.ValidTier(tier) {
		// Minimization principle: an undeclared tier gets the least
		// context, not the most.
		log.Warn("unknown complexity tier, treating as simple", zap.String("tier", string(tier)))
		tier = catalog.TierSimple
	}

	layers := e.layers.Select(classification.Pattern, tier, req.overrides())
	log.Debug("layers selected",
		zap.String("state", string(StateLayersSelected)),
		zap.Int("count", len(layers)))

	mandates := e.mandates.Resolve(req.FeatureTypes)
	log.Debug("mandates resolved",
		zap.String("state", string(StateMandatesResolved)),
		zap.Int("count", len(mandates)))

	prompt, err := e.assembler.Assemble(AssembleInput{
		Pattern:         classification.Pattern,
		Layers:          layers,
		Mandates:        mandates,
		Persona:         req.Persona,
		ContextPayloads: req.ContextPayloads,
		Task:            req.Task,
		Requirements:    req.Requirements,
		MandateTexts:    req.MandateTexts,
		Meta:            req.Meta,
		Output:          req.Output,
	})
	if err != nil {
		log.Warn("assembly failed",
			zap.String("state", string(StateRejected)),
			zap.Error(err))
		return nil, err
	}
	log.Debug("prompt assembled", zap.String("state", string(StateAssembled)))

	report := e.scorer.Score(prompt)
	log.Debug("prompt scored",
		zap.String("state", string(StateScored)),
		zap.Float64("aggregate", report.Aggregate),
		zap.Int("stars", report.Stars))

	result := &Result{
		RequestID:      reqID,
		Classification: classification,
		Layers:         layers,
		Mandates:       mandates,
		Prompt:         prompt,
		Report:         report,
		State:          StateDelivered,
	}
	log.Info("request delivered",
		zap.String("state", string(StateDelivered)),
		zap.String("pattern", classification.Pattern.Name),
		zap.Float64("score", report.Aggregate))
	return result, nil
}
