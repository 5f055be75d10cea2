package ragchat

// ChatRequest is the body of one chat exchange.
type ChatRequest struct {
	Message     string
	ThreadID    string
	DocumentIDs []int // nil = no restriction
}

// Normalize returns a copy of r with an empty DocumentIDs slice replaced by
// nil, so it serializes as JSON null.
func (r ChatRequest) Normalize() ChatRequest {
	if len(r.DocumentIDs) == 0 {
		r.DocumentIDs = nil
	}
	return r
}
