package services

import (
	"context"
	"sync"

	"serverbot/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type postedMessage struct {
	Destination models.ChannelDestination
	Text        string
}

// recordingPoster captures every PostMessage call and fails while err is set
type recordingPoster struct {
	mu       sync.Mutex
	messages []postedMessage
	err      error
}

func (p *recordingPoster) PostMessage(ctx context.Context, destination models.ChannelDestination, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, postedMessage{Destination: destination, Text: text})
	return p.err
}

func (p *recordingPoster) Messages() []postedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]postedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *recordingPoster) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// scriptedInspector returns one canned response per call, repeating the last
type scriptedInspector struct {
	mu        sync.Mutex
	responses []inspectResponse
	calls     int
}

type inspectResponse struct {
	samples []models.UsageSample
	err     error
}

func (s *scriptedInspector) InspectAll(ctx context.Context, mountPoints []models.MountPoint) ([]models.UsageSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	r := s.responses[idx]
	return r.samples, r.err
}

func staticInspector(samples ...models.UsageSample) *scriptedInspector {
	return &scriptedInspector{responses: []inspectResponse{{samples: samples}}}
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}
