package pipeline

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityProgress
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityProgress:
		return "progress"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Observer receives run progress. Calls never overlap, but item and fraction
// updates come from download worker goroutines when more than one worker is
// configured; implementations that touch a UI must hand off themselves.
type Observer interface {
	OnStatus(msg string, sev Severity)
	OnCandidateCount(n int)
	// OnItemProgress reports that index of total image downloads are finished.
	OnItemProgress(index, total int)
	// OnProgressFraction reports overall progress in [0, 1]. Downloads cover
	// [0, 0.8], document assembly (0.8, 1].
	OnProgressFraction(f float64)
}

type NopObserver struct{}

func (NopObserver) OnStatus(string, Severity)  {}
func (NopObserver) OnCandidateCount(int)       {}
func (NopObserver) OnItemProgress(int, int)    {}
func (NopObserver) OnProgressFraction(float64) {}
