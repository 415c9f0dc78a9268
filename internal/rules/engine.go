// Package rules assigns categories to transactions. Precedence is fixed:
// a learned per-user mapping always wins, then the best-scoring matching
// rule, then the external classifier as a last resort.
package rules

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"bankbooks/internal/classifier"
	"bankbooks/internal/database"
	"bankbooks/internal/logger"
	"bankbooks/internal/models"
)

// CertaintyThreshold is the rule score at or above which the uncertainty
// flag is cleared.
const CertaintyThreshold = 50

// Engine runs the categorize pass.
type Engine struct {
	db  *database.DB
	cls classifier.Service
}

func NewEngine(db *database.DB, cls classifier.Service) *Engine {
	if cls == nil {
		cls = classifier.Disabled{}
	}
	return &Engine{db: db, cls: cls}
}

// Stats summarizes one categorize pass.
type Stats struct {
	Scanned    int
	ByMapping  int
	ByRule     int
	ByAI       int
	Unresolved int
}

// CategorizeAll categorizes every unresolved transaction of the user, both
// the still-uncategorized and those carrying an uncertain assignment.
// Individual failures are logged and skipped; the pass keeps going.
func (e *Engine) CategorizeAll(ctx context.Context, userID string) (Stats, error) {
	var stats Stats

	txns, err := e.db.ListUnresolved(userID)
	if err != nil {
		return stats, fmt.Errorf("list unresolved: %w", err)
	}
	if len(txns) == 0 {
		return stats, nil
	}
	stats.Scanned = len(txns)

	rules, err := e.db.ListActiveRules()
	if err != nil {
		return stats, fmt.Errorf("list rules: %w", err)
	}
	compiled := compileRules(rules)

	catNames, err := e.db.CategoryNames()
	if err != nil {
		return stats, fmt.Errorf("list categories: %w", err)
	}

	for i := range txns {
		txn := &txns[i]
		switch e.categorizeOne(ctx, txn, compiled, catNames) {
		case sourceMapping:
			stats.ByMapping++
		case sourceRule:
			stats.ByRule++
		case sourceAI:
			stats.ByAI++
		default:
			stats.Unresolved++
		}
	}

	logger.Ctx(ctx).Info("categorize_pass_done",
		"user_id", userID,
		"scanned", stats.Scanned,
		"by_mapping", stats.ByMapping,
		"by_rule", stats.ByRule,
		"by_ai", stats.ByAI,
		"unresolved", stats.Unresolved)
	return stats, nil
}

type source int

const (
	sourceNone source = iota
	sourceMapping
	sourceRule
	sourceAI
)

func (e *Engine) categorizeOne(ctx context.Context, txn *models.Transaction, rules []compiledRule, catNames []string) source {
	log := logger.Ctx(ctx)

	// Learned mappings override everything.
	m, err := e.db.GetMapping(txn.UserID, txn.NormalizedDesc)
	if err != nil {
		log.Warn("mapping_lookup_failed", "txn_id", txn.ID, "error", err.Error())
	} else if m != nil {
		if err := e.db.SetTransactionCategory(txn.ID, m.CategoryID, m.SubcategoryID, false); err != nil {
			log.Warn("categorize_failed", "txn_id", txn.ID, "error", err.Error())
			return sourceNone
		}
		return sourceMapping
	}

	if best, score, ok := bestRule(txn, rules); ok {
		uncertain := score < CertaintyThreshold
		if err := e.db.SetTransactionCategory(txn.ID, *best.CategoryID, best.SubcategoryID, uncertain); err != nil {
			log.Warn("categorize_failed", "txn_id", txn.ID, "error", err.Error())
			return sourceNone
		}
		return sourceRule
	}

	// Nothing local matched; ask the classifier. Its answers stay flagged
	// uncertain until a user confirms one.
	sug, ok := e.cls.Classify(ctx, txn.NormalizedDesc, txn.Amount, catNames)
	if !ok {
		return sourceNone
	}
	cat, err := e.db.GetCategoryByName(sug.Category)
	if err != nil {
		log.Warn("classifier_unknown_category", "txn_id", txn.ID, "category", sug.Category)
		return sourceNone
	}
	if err := e.db.SetTransactionCategory(txn.ID, cat.ID, nil, true); err != nil {
		log.Warn("categorize_failed", "txn_id", txn.ID, "error", err.Error())
		return sourceNone
	}

	// Persist what the classifier learned so the next alike description is
	// handled locally. Collisions with an existing auto rule are fine.
	autoRule := &models.Rule{
		Name:       "auto:" + strings.ToLower(txn.NormalizedDesc),
		Pattern:    "%" + txn.NormalizedDesc + "%",
		CategoryID: &cat.ID,
		Priority:   10,
		Active:     true,
	}
	if _, err := e.db.CreateRule(autoRule); err != nil && err != database.ErrDuplicate {
		log.Warn("auto_rule_failed", "txn_id", txn.ID, "error", err.Error())
	}
	return sourceAI
}

// Confirm records a user-confirmed categorization as a mapping and applies
// it to all of the user's alike transactions.
func (e *Engine) Confirm(ctx context.Context, userID, normalizedDesc string, categoryID int64, subcategoryID *int64) (int64, error) {
	if err := e.db.UpsertMapping(userID, normalizedDesc, categoryID, subcategoryID); err != nil {
		return 0, err
	}
	// The mapping supersedes any auto rule the classifier wrote for this
	// description.
	if err := e.db.DeactivateRule("auto:" + strings.ToLower(normalizedDesc)); err != nil {
		logger.Ctx(ctx).Warn("auto_rule_deactivate_failed",
			"normalized_desc", normalizedDesc, "error", err.Error())
	}
	n, err := e.db.ApplyMapping(userID, normalizedDesc, categoryID, subcategoryID)
	if err != nil {
		return 0, err
	}
	logger.Ctx(ctx).Info("mapping_confirmed",
		"user_id", userID, "normalized_desc", normalizedDesc, "updated", n)
	return n, nil
}

type compiledRule struct {
	rule models.Rule
	re   *regexp.Regexp // nil when the pattern failed to compile
}

func compileRules(rules []models.Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.CategoryID == nil {
			continue
		}
		out = append(out, compiledRule{rule: r, re: CompilePattern(r.Pattern)})
	}
	return out
}

// CompilePattern turns a LIKE-style pattern (% and _ wildcards) into a
// case-insensitive anchored regexp. Returns nil for patterns that do not
// compile; a nil pattern never matches.
func CompilePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?i)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil
	}
	return re
}

// bestRule returns the highest-scoring rule matching the transaction.
func bestRule(txn *models.Transaction, rules []compiledRule) (*models.Rule, int, bool) {
	var best *models.Rule
	bestScore := math.MinInt
	for i := range rules {
		cr := &rules[i]
		if !ruleMatches(txn, cr) {
			continue
		}
		if s := scoreRule(txn, &cr.rule); s > bestScore {
			best = &cr.rule
			bestScore = s
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestScore, true
}

func ruleMatches(txn *models.Transaction, cr *compiledRule) bool {
	r := &cr.rule
	if cr.re == nil || !cr.re.MatchString(txn.NormalizedDesc) {
		return false
	}
	if r.AccountType != "" && r.AccountType != txn.AccountType {
		return false
	}
	if r.MerchantFilter != "" &&
		!strings.Contains(txn.NormalizedDesc, strings.ToUpper(r.MerchantFilter)) {
		return false
	}
	// Amount bounds apply to the magnitude, so one rule covers both the
	// bank and card renderings of the same spend.
	amt := math.Abs(txn.Amount)
	if r.MinAmount != nil && amt < *r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && amt > *r.MaxAmount {
		return false
	}
	return true
}

// scoreRule scores a rule that already matched: base priority, +10 when a
// merchant filter narrowed the match, +5 when the description is long
// enough to be distinctive.
func scoreRule(txn *models.Transaction, r *models.Rule) int {
	score := r.Priority
	if r.MerchantFilter != "" {
		score += 10
	}
	if len(txn.NormalizedDesc) > 20 {
		score += 5
	}
	return score
}
