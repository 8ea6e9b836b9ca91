package extractor

import "fmt"

type Kind string

const (
	KindNoTab        Kind = "no_tab"
	KindEmptyContent Kind = "empty_content"
	KindUnparseable  Kind = "unparseable"
	KindOversized    Kind = "oversized"
)

// ExtractionError is the only error type Extract returns. Compare kinds
// with errors.Is against the sentinels below.
type ExtractionError struct {
	Kind Kind
	URL  string
	Err  error
}

var (
	ErrNoTab        = &ExtractionError{Kind: KindNoTab}
	ErrEmptyContent = &ExtractionError{Kind: KindEmptyContent}
	ErrUnparseable  = &ExtractionError{Kind: KindUnparseable}
	ErrOversized    = &ExtractionError{Kind: KindOversized}
)

func (e *ExtractionError) Error() string {
	msg := e.Kind.Reason()
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	return ok && t.Kind == e.Kind
}

// Notice is the assistant message shown in place of the greeting.
func (e *ExtractionError) Notice() string {
	return "⚠️ Failed to analyze page content: " + e.Kind.Reason()
}

func (k Kind) Reason() string {
	switch k {
	case KindNoTab:
		return "No active tab found"
	case KindEmptyContent:
		return "Empty page content"
	case KindUnparseable:
		return "Readability couldn't parse the page."
	case KindOversized:
		return "Page is too large to analyze"
	default:
		return "Error reading page content"
	}
}

func newError(kind Kind, url string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, URL: url, Err: err}
}
