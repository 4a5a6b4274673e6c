package model

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ContentMessage is the fixed message carried by every generated record.
	ContentMessage = "This is random test data for file operations"

	// TimestampLayout renders UTC times with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

	idLength       = 10
	fragmentLength = 6
	fragmentCount  = 10

	base36 = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Content is the synthetic payload written to disk and read back by an io task.
type Content struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Data      []string `json:"data"`
	Message   string   `json:"message"`
}

// Generate creates a new Content record with a random base36 id and returns it
// together with its serialized form.
func Generate(now time.Time) (*Content, []byte, error) {
	id, err := randomString(idLength)
	if err != nil {
		return nil, nil, err
	}

	data := make([]string, 0, fragmentCount)

	for i := 0; i < fragmentCount; i++ {
		fragment, err := randomString(fragmentLength)
		if err != nil {
			return nil, nil, err
		}

		data = append(data, fragment)
	}

	c := &Content{
		ID:        id,
		Timestamp: now.UTC().Format(TimestampLayout),
		Data:      data,
		Message:   ContentMessage,
	}

	b, err := c.Marshal()
	if err != nil {
		return nil, nil, err
	}

	return c, b, nil
}

// Marshal serializes the record as JSON.
func (c *Content) Marshal() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}

	return b, nil
}

// Unmarshal parses a serialized Content record.
func Unmarshal(b []byte) (*Content, error) {
	var c Content

	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}

	return string(buf), nil
}
