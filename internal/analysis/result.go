package analysis

// Kind classifies the outcome of a field extraction call.
type Kind int

// Result kinds.
const (
	KindOK Kind = iota
	KindEmpty
	KindParseError
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmpty:
		return "empty"
	case KindParseError:
		return "parse_error"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one reasoning-service extraction.
// Fields is set only for KindOK, RawExcerpt only for KindParseError and
// Err only for KindUnavailable.
type Result struct {
	Kind       Kind
	Fields     map[string]string
	RawExcerpt string
	Err        error
}

// OK returns a result carrying a non-empty field map.
func OK(fields map[string]string) Result {
	if len(fields) == 0 {
		return Empty()
	}
	return Result{Kind: KindOK, Fields: fields}
}

// Empty returns a well-formed result with no fields.
func Empty() Result { return Result{Kind: KindEmpty} }

// ParseError returns a result for an unparseable response.
func ParseError(excerpt string) Result {
	return Result{Kind: KindParseError, RawExcerpt: excerpt}
}

// Unavailable returns a result for a failed service call.
func Unavailable(err error) Result {
	return Result{Kind: KindUnavailable, Err: err}
}

// Retryable reports whether the outcome warrants the single clarifying retry.
func (r Result) Retryable() bool {
	return r.Kind == KindParseError || r.Kind == KindUnavailable
}
