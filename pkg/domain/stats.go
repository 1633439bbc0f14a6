package domain

type Stats struct {
	TotalRequests int64
}
