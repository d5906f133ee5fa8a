package view

import "strings"

// Strategy identifies how a file is displayed.
type Strategy int

// Display strategies, one per file kind, plus a placeholder for metadata
// that has not arrived yet.
const (
	StrategyLoading Strategy = iota
	StrategyImage
	StrategyUnsupportedBinary
	StrategyMarkdown
	StrategyText
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyImage:
		return "image"
	case StrategyUnsupportedBinary:
		return "binary"
	case StrategyMarkdown:
		return "markdown"
	case StrategyText:
		return "text"
	default:
		return "loading"
	}
}

// SelectStrategy picks exactly one display strategy from file metadata.
// The decision is a fixed priority: absent metadata wins over everything,
// binary-ness dominates the path extension, and the extension dominates the
// generic text fallback. Content is never inspected here.
//
// The image check is a substring match on the MIME type, so types that merely
// contain "image" also select the Image strategy. This matches the observed
// behavior the rest of the system depends on; see TestSelectStrategyLooseMIMEMatch.
func SelectStrategy(meta *FileMeta) Strategy {
	if meta == nil {
		return StrategyLoading
	}
	if meta.IsBinary {
		if strings.Contains(meta.MIMEType, "image") {
			return StrategyImage
		}
		return StrategyUnsupportedBinary
	}
	if strings.HasSuffix(strings.ToLower(meta.Path), ".md") {
		return StrategyMarkdown
	}
	return StrategyText
}
