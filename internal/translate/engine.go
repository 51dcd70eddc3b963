package translate

import "context"

// Engine converts one caption text between languages. sourceLang may be
// empty or "Auto" for engine-side detection. Called once per segment; the
// orchestrator owns batching and progress.
type Engine interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
