package metrics

import (
	"time"

	obserrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	ConfigLoad   = "session.config_load"
	TokenCheck   = "session.token_check"
	Login        = "session.login"
	ForcedLogout = "session.forced_logout"
	Navigation   = "router.navigation"
	Initialize   = "session.initialize"
)

// SessionMetric captures one session or navigation event for metric emission.
type SessionMetric struct {
	Name     string
	Result   string
	Outcome  string
	Duration time.Duration
	Err      error
	Tags     map[string]string
}

// Emit sends a counter (and a timing when Duration is set) for the event.
func Emit(sink statsd.Sink, in SessionMetric) {
	if sink == nil || in.Name == "" {
		return
	}

	tags := CloneTags(in.Tags)
	if tags == nil {
		tags = make(map[string]string, 3)
	}
	if in.Result != "" {
		tags["result"] = in.Result
	}
	if in.Outcome != "" {
		tags["outcome"] = in.Outcome
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(in.Name, 1, tags)

	if in.Duration > 0 {
		sink.Timing(in.Name+".duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
