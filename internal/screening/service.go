// Package screening implements automated content analysis against a
// configurable rule set, producing a moderation verdict per content item.
package screening

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"gatekeeper/internal/analysis"
	"gatekeeper/internal/config"
	"gatekeeper/internal/models"
	"gatekeeper/internal/observability"
	"gatekeeper/internal/repository"
	"gatekeeper/internal/validation"
)

// Content is the raw material handed to ScreenContent. Any field may be
// empty; text fields are concatenated for analysis.
type Content struct {
	Text        string   `json:"text,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	FileURLs    []string `json:"file_urls,omitempty"`
}

// ModerationConfig holds the verdict thresholds. The bands must stay
// ordered: auto-approve <= require-review <= auto-reject.
type ModerationConfig struct {
	AutoApproveThreshold   float64 `json:"auto_approve_threshold"`
	RequireReviewThreshold float64 `json:"require_review_threshold"`
	AutoRejectThreshold    float64 `json:"auto_reject_threshold"`
}

// ConfigUpdate carries a partial threshold edit. Nil fields keep their
// current value.
type ConfigUpdate struct {
	AutoApproveThreshold   *float64 `json:"auto_approve_threshold,omitempty"`
	RequireReviewThreshold *float64 `json:"require_review_threshold,omitempty"`
	AutoRejectThreshold    *float64 `json:"auto_reject_threshold,omitempty"`
}

// compiledRule pairs a rule with its pre-compiled regex so screening does
// not recompile patterns per call. A pattern that fails to compile leaves
// re nil and the rule never matches.
type compiledRule struct {
	rule models.ModerationRule
	re   *regexp.Regexp
}

// ContentScreeningService evaluates content against the active rule set.
// The rule snapshot is copy-on-write: ScreenContent reads it under RLock
// while rule mutations rebuild and swap it under the write lock, so an
// in-flight screening never observes a half-edited rule list.
type ContentScreeningService struct {
	ruleRepo   repository.RuleRepository
	resultRepo repository.ResultRepository

	textAnalyzer  analysis.TextAnalyzer
	imageAnalyzer analysis.ImageAnalyzer
	fileScanner   *analysis.FileScanner

	mu    sync.RWMutex
	rules []compiledRule

	cfgMu sync.RWMutex
	cfg   ModerationConfig

	logger *observability.ServiceLogger
}

// placeholder confidence for ml_model rules whose category has no backing
// analysis signal yet.
const placeholderMLConfidence = 0.1

// NewContentScreeningService builds the service, seeds the default rule
// set if the store is empty, and loads the live rule snapshot.
func NewContentScreeningService(
	ctx context.Context,
	ruleRepo repository.RuleRepository,
	resultRepo repository.ResultRepository,
	textAnalyzer analysis.TextAnalyzer,
	imageAnalyzer analysis.ImageAnalyzer,
	cfg *config.Config,
) (*ContentScreeningService, error) {
	s := &ContentScreeningService{
		ruleRepo:      ruleRepo,
		resultRepo:    resultRepo,
		textAnalyzer:  textAnalyzer,
		imageAnalyzer: imageAnalyzer,
		cfg: ModerationConfig{
			AutoApproveThreshold:   cfg.AutoApproveThreshold,
			RequireReviewThreshold: cfg.RequireReviewThreshold,
			AutoRejectThreshold:    cfg.AutoRejectThreshold,
		},
		logger: observability.NewServiceLogger("screening"),
	}
	if err := config.ValidateThresholds(s.cfg.AutoApproveThreshold, s.cfg.RequireReviewThreshold, s.cfg.AutoRejectThreshold); err != nil {
		return nil, err
	}

	existing, err := ruleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading moderation rules: %w", err)
	}
	if len(existing) == 0 {
		for _, rule := range DefaultRules() {
			if err := ruleRepo.Create(ctx, rule); err != nil {
				return nil, fmt.Errorf("seeding default rule %q: %w", rule.Name, err)
			}
		}
	}
	if err := s.reloadRules(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ScreenContent analyzes one content item and returns its verdict. It never
// returns an error to the caller: any internal failure, analyzer timeout or
// panic degrades to a pending_review verdict so nothing slips through on a
// bad day. The result is persisted best-effort for audit and statistics.
func (s *ContentScreeningService) ScreenContent(ctx context.Context, contentID string, contentType models.ContentType, content Content) (result *models.ContentModerationResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.LogError(ctx, "ScreenContent", fmt.Errorf("panic during screening: %v", r))
			result = s.failSafeResult(ctx, contentID, contentType)
		}
	}()

	result, err := s.screen(ctx, contentID, contentType, content)
	if err != nil {
		s.logger.LogError(ctx, "ScreenContent", err)
		return s.failSafeResult(ctx, contentID, contentType)
	}

	observability.ScreeningsTotal.WithLabelValues(string(result.Status), string(contentType)).Inc()
	s.persistResult(ctx, result)
	return result
}

func (s *ContentScreeningService) screen(ctx context.Context, contentID string, contentType models.ContentType, content Content) (*models.ContentModerationResult, error) {
	combined := combineText(content)

	var textResult *analysis.TextAnalysis
	if combined != "" {
		var err error
		textResult, err = s.textAnalyzer.Analyze(ctx, combined)
		if err != nil {
			return nil, fmt.Errorf("text analysis: %w", err)
		}
	}

	var imageResult *analysis.ImageAnalysis
	if len(content.ImageURLs) > 0 {
		var err error
		imageResult, err = s.imageAnalyzer.Analyze(ctx, content.ImageURLs)
		if err != nil {
			return nil, fmt.Errorf("image analysis: %w", err)
		}
	}

	var fileFlags []models.ModerationFlag
	if s.fileScanner != nil && len(content.FileURLs) > 0 {
		var err error
		fileFlags, err = s.scanFiles(ctx, content.FileURLs)
		if err != nil {
			return nil, fmt.Errorf("file scan: %w", err)
		}
	}

	s.mu.RLock()
	rules := s.rules
	s.mu.RUnlock()

	now := time.Now().UTC()
	flags := fileFlags
	for _, cr := range rules {
		if !cr.rule.IsActive {
			continue
		}
		confidence := evaluateRule(cr, combined, textResult, imageResult)
		if confidence < cr.rule.Threshold {
			continue
		}
		observability.RuleTriggers.WithLabelValues(string(cr.rule.Category), string(cr.rule.Type)).Inc()
		flags = append(flags, models.ModerationFlag{
			Type:        cr.rule.Category,
			Severity:    cr.rule.Severity,
			Confidence:  confidence,
			Description: fmt.Sprintf("Content matched moderation rule %q", cr.rule.Name),
			DetectedBy:  models.DetectedByAutomated,
			CreatedAt:   now,
		})
	}

	status, overall := s.verdict(flags)
	return &models.ContentModerationResult{
		ContentID:   contentID,
		ContentType: contentType,
		Status:      status,
		Confidence:  overall,
		Flags:       flags,
		CreatedAt:   now,
	}, nil
}

// SetFileScanner attaches file-level screening. Without a scanner,
// FileURLs are ignored.
func (s *ContentScreeningService) SetFileScanner(scanner *analysis.FileScanner) {
	s.fileScanner = scanner
}

// scanFiles checks each attached file: type allow-list, size cap, malware
// scan, and image dimension sanity. Findings become flags; an unreachable
// scanner or unreadable file is an error so the caller degrades to the
// fail-safe verdict instead of approving unscanned files.
func (s *ContentScreeningService) scanFiles(ctx context.Context, paths []string) ([]models.ModerationFlag, error) {
	now := time.Now().UTC()
	var flags []models.ModerationFlag

	flag := func(severity models.Severity, confidence float64, description string) {
		flags = append(flags, models.ModerationFlag{
			Type:        models.FlagSpam,
			Severity:    severity,
			Confidence:  confidence,
			Description: description,
			DetectedBy:  models.DetectedByAutomated,
			CreatedAt:   now,
		})
	}

	for _, path := range paths {
		typeValid, category, _ := s.fileScanner.ValidateFileType(path)
		if !typeValid {
			flag(models.SeverityMedium, 0.8, fmt.Sprintf("File type not allowed: %s", path))
			continue
		}

		sizeValid, _, err := s.fileScanner.ValidateFileSize(path)
		if err != nil {
			return nil, err
		}
		if !sizeValid {
			flag(models.SeverityMedium, 0.8, fmt.Sprintf("File exceeds size limit: %s", path))
			continue
		}

		clean, detail, err := s.fileScanner.ScanForMalware(ctx, path)
		if err != nil {
			return nil, err
		}
		if !clean {
			flag(models.SeverityCritical, 1.0, fmt.Sprintf("Malware detected in %s: %s", path, detail))
			continue
		}

		if category == analysis.FileCategoryImage {
			safe, detail, err := s.fileScanner.AnalyzeImageFile(path)
			if err != nil {
				return nil, err
			}
			if !safe {
				flag(models.SeverityMedium, 0.8, fmt.Sprintf("%s: %s", detail, path))
			}
		}
	}
	return flags, nil
}

// verdict aggregates flags into a single status. Confidence is the
// severity-weighted average of flag confidences; no flags means a clean
// approval at confidence 0.
func (s *ContentScreeningService) verdict(flags []models.ModerationFlag) (models.ModerationStatus, float64) {
	if len(flags) == 0 {
		return models.StatusApproved, 0
	}

	var weighted, totalWeight float64
	for _, f := range flags {
		w := models.SeverityWeight(f.Severity)
		weighted += f.Confidence * w
		totalWeight += w
	}
	overall := weighted / totalWeight

	cfg := s.GetConfig()
	switch {
	case overall >= cfg.AutoRejectThreshold:
		return models.StatusRejected, overall
	case overall >= cfg.RequireReviewThreshold:
		return models.StatusPendingReview, overall
	case overall <= cfg.AutoApproveThreshold:
		return models.StatusApproved, overall
	default:
		return models.StatusFlagged, overall
	}
}

func evaluateRule(cr compiledRule, combined string, textResult *analysis.TextAnalysis, imageResult *analysis.ImageAnalysis) float64 {
	switch cr.rule.Type {
	case models.RuleTypeKeyword:
		if len(cr.rule.Keywords) == 0 {
			return 0
		}
		lower := strings.ToLower(combined)
		matches := 0
		for _, kw := range cr.rule.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		return float64(matches) / float64(len(cr.rule.Keywords))

	case models.RuleTypePattern:
		if cr.re == nil || combined == "" {
			return 0
		}
		count := len(cr.re.FindAllStringIndex(combined, -1))
		confidence := float64(count) / 10
		if confidence > 1 {
			confidence = 1
		}
		return confidence

	case models.RuleTypeMLModel:
		switch cr.rule.Category {
		case models.FlagInappropriateLanguage:
			if textResult == nil {
				return 0
			}
			return textResult.Toxicity
		case models.FlagAdultContent:
			if imageResult == nil {
				return 0
			}
			return imageResult.AdultContent
		case models.FlagViolence:
			if imageResult == nil {
				return 0
			}
			return imageResult.Violence
		default:
			return placeholderMLConfidence
		}

	default:
		// Custom rules have no built-in evaluator.
		return 0
	}
}

// failSafeResult is the degraded verdict used when screening itself fails:
// the item is parked for human review, never silently approved or rejected.
func (s *ContentScreeningService) failSafeResult(ctx context.Context, contentID string, contentType models.ContentType) *models.ContentModerationResult {
	observability.ScreeningFailures.Inc()
	observability.ScreeningsTotal.WithLabelValues(string(models.StatusPendingReview), string(contentType)).Inc()

	now := time.Now().UTC()
	result := &models.ContentModerationResult{
		ContentID:   contentID,
		ContentType: contentType,
		Status:      models.StatusPendingReview,
		Confidence:  0.5,
		Flags: []models.ModerationFlag{{
			Type:        models.FlagMisinformation,
			Severity:    models.SeverityMedium,
			Confidence:  0.5,
			Description: "Automated screening failed, content parked for manual review",
			DetectedBy:  models.DetectedByAutomated,
			CreatedAt:   now,
		}},
		CreatedAt: now,
	}
	s.persistResult(ctx, result)
	return result
}

// persistResult stores a verdict for audit and statistics. Failure to
// persist does not change the verdict already computed.
func (s *ContentScreeningService) persistResult(ctx context.Context, result *models.ContentModerationResult) {
	if s.resultRepo == nil {
		return
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		s.logger.LogError(ctx, "persistResult", err)
	}
}

// AddRule validates, persists and activates a new rule.
func (s *ContentScreeningService) AddRule(ctx context.Context, rule *models.ModerationRule) (*models.ModerationRule, error) {
	if err := validation.ValidateRule(rule); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.reloadRules(ctx); err != nil {
		return nil, err
	}
	s.logger.LogCall(ctx, "AddRule", map[string]interface{}{"rule_id": rule.ID, "name": rule.Name})
	return rule, nil
}

// UpdateRule applies a partial edit to an existing rule. Unset fields and
// the original creation time are preserved.
func (s *ContentScreeningService) UpdateRule(ctx context.Context, id string, update models.RuleUpdate) (*models.ModerationRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	update.Apply(rule)
	if err := validation.ValidateRule(rule); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.reloadRules(ctx); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule. Returns false when no rule had the given id.
func (s *ContentScreeningService) DeleteRule(ctx context.Context, id string) (bool, error) {
	deleted, err := s.ruleRepo.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	if err := s.reloadRules(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// GetRules returns a defensive copy of the current rule set.
func (s *ContentScreeningService) GetRules() []models.ModerationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ModerationRule, len(s.rules))
	for i, cr := range s.rules {
		out[i] = cr.rule
	}
	return out
}

// GetConfig returns a copy of the current thresholds.
func (s *ContentScreeningService) GetConfig() ModerationConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig merges a partial threshold update after validating that the
// resulting bands stay ordered.
func (s *ContentScreeningService) UpdateConfig(update ConfigUpdate) (ModerationConfig, error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	next := s.cfg
	if update.AutoApproveThreshold != nil {
		next.AutoApproveThreshold = *update.AutoApproveThreshold
	}
	if update.RequireReviewThreshold != nil {
		next.RequireReviewThreshold = *update.RequireReviewThreshold
	}
	if update.AutoRejectThreshold != nil {
		next.AutoRejectThreshold = *update.AutoRejectThreshold
	}
	if err := config.ValidateThresholds(next.AutoApproveThreshold, next.RequireReviewThreshold, next.AutoRejectThreshold); err != nil {
		return s.cfg, models.NewValidationError(err.Error())
	}
	s.cfg = next
	return next, nil
}

// reloadRules rebuilds the rule snapshot from the store and swaps it in.
func (s *ContentScreeningService) reloadRules(ctx context.Context) error {
	stored, err := s.ruleRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("reloading moderation rules: %w", err)
	}

	snapshot := make([]compiledRule, 0, len(stored))
	for _, rule := range stored {
		cr := compiledRule{rule: *rule}
		if rule.Type == models.RuleTypePattern && rule.Pattern != "" {
			re, err := regexp.Compile("(?i)" + rule.Pattern)
			if err != nil {
				s.logger.LogError(ctx, "reloadRules", fmt.Errorf("rule %s pattern does not compile: %w", rule.ID, err))
			} else {
				cr.re = re
			}
		}
		snapshot = append(snapshot, cr)
	}

	s.mu.Lock()
	s.rules = snapshot
	s.mu.Unlock()
	return nil
}

// combineText joins the text-bearing fields, skipping empty ones.
func combineText(content Content) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{content.Text, content.Title, content.Description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
