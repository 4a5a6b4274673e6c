package model

// Span is the flattened JSON form of a finished span, as posted by the
// custom exporter to a collector endpoint.
type Span struct {
	TraceID       string            `json:"traceId"`
	ID            string            `json:"id"`
	ParentID      string            `json:"parentId,omitempty"`
	Name          string            `json:"name"`
	Kind          string            `json:"kind"`
	Timestamp     int64             `json:"timestamp"`
	Duration      int64             `json:"duration"`
	Status        string            `json:"status"`
	StatusMessage string            `json:"statusMessage,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
	Events        []SpanEvent       `json:"events,omitempty"`
	LocalEndpoint map[string]string `json:"localEndpoint"`
}

// SpanEvent is a timestamped annotation on a Span. Timestamp is in
// milliseconds since the epoch.
type SpanEvent struct {
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}
