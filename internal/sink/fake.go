package sink

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Sink recording every call, used by engine and
// scheduler tests in place of a live Telegram session.
type Fake struct {
	mu sync.Mutex

	MediaGroups []MediaGroupRequest
	TextReports []string
	Disconnects int

	HealthErr error
	SendErr   error

	nextMessageID int
}

// NewFake builds an empty Fake sink.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) SendMediaGroup(ctx context.Context, req MediaGroupRequest) (MediaGroupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return MediaGroupResult{}, f.SendErr
	}
	f.MediaGroups = append(f.MediaGroups, req)

	result := MediaGroupResult{}
	for range req.Files {
		f.nextMessageID++
		result.MessageIDs = append(result.MessageIDs, fmt.Sprintf("fake-msg-%d", f.nextMessageID))
	}
	return result, nil
}

func (f *Fake) SendText(ctx context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.TextReports = append(f.TextReports, message)
	return nil
}

func (f *Fake) HealthCheck(ctx context.Context) error {
	return f.HealthErr
}

func (f *Fake) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Disconnects++
	return nil
}
