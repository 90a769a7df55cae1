package handler

// MessageResponse is the body of GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// SlowResponse is the body of GET /slow. Delay is in milliseconds.
type SlowResponse struct {
	Message string  `json:"message"`
	Delay   float64 `json:"delay"`
}

// DBResponse is the body of GET /db.
type DBResponse struct {
	Time      string `json:"time"`
	Simulated bool   `json:"simulated"`
}

// CacheResponse is the body of GET /cache.
type CacheResponse struct {
	Cached    string `json:"cached"`
	Simulated bool   `json:"simulated"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
