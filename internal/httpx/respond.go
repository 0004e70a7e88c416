package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
)

// EventPublisher is the slice of the Kafka producer the handlers need.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func eventHeaders(eventType string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte("1")},
	}
}

func pageCount(rowCount, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (rowCount + pageSize - 1) / pageSize
}

type tableResponse[T any] struct {
	Rows      []T `json:"rows"`
	PageCount int `json:"page_count"`
	RowCount  int `json:"row_count"`
}
