package text

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// ReplaceText reads all of content and applies the pattern to it
func ReplaceText(ctx context.Context, content io.Reader, p *Pattern) (*ReplacementResult, error) {
	if p == nil {
		return nil, errors.New("pattern is required")
	}

	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	modified, count := p.SubnBytes(originalContent)

	zerolog.Ctx(ctx).Trace().
		Str("pattern", p.String()).
		Int("replacements", count).
		Msg("replaced text")

	return &ReplacementResult{
		WasModified:      count > 0,
		ReplacementCount: count,
		OriginalContent:  originalContent,
		ModifiedContent:  modified,
	}, nil
}
