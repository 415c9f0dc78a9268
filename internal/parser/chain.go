package parser

// ChainFor assembles the ordered fallback chain for unstructured statement
// text of the given detected type. Stages are tried in order until one
// yields at least one candidate; earlier-stage output is authoritative. The
// external extraction stage is appended by the orchestrator, which owns the
// classifier capability, and only for non-generic statements.
func ChainFor(stmtType string) []Strategy {
	var chain []Strategy
	if s, ok := IssuerStrategy(stmtType); ok {
		chain = append(chain, s)
	}
	chain = append(chain,
		Strategy{Name: "multiline_blocks", Version: "v1", Parse: ParseMultiline},
		Strategy{Name: "trailing_amount_heuristic", Version: "v1", Parse: ParseHeuristic},
	)
	return chain
}

// RunChain evaluates the stages in order and returns the first non-empty
// result along with the stage that produced it.
func RunChain(chain []Strategy, text string) ([]Candidate, Strategy, bool) {
	for _, s := range chain {
		if candidates := s.Parse(text); len(candidates) > 0 {
			return candidates, s, true
		}
	}
	return nil, Strategy{}, false
}
