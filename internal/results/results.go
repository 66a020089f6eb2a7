package results

import (
	"time"
)

// PollResult describes one decode of one listing.
type PollResult struct {
	Input      string
	Document   string
	Records    int
	SubRecords int
	Emitted    int
	Bytes      int64
	Digest     uint64
	Changed    bool
	Duration   time.Duration
	Error      error
}

type PollResultBuilder struct {
	result PollResult
}

func NewPollResultBuilder(input, document string) *PollResultBuilder {
	return &PollResultBuilder{
		result: PollResult{Input: input, Document: document, Changed: true},
	}
}

func (b *PollResultBuilder) WithRecords(records, subRecords int) *PollResultBuilder {
	b.result.Records = records
	b.result.SubRecords = subRecords
	return b
}

func (b *PollResultBuilder) WithEmitted(emitted int) *PollResultBuilder {
	b.result.Emitted = emitted
	return b
}

func (b *PollResultBuilder) WithDigest(bytes int64, digest uint64, changed bool) *PollResultBuilder {
	b.result.Bytes = bytes
	b.result.Digest = digest
	b.result.Changed = changed
	return b
}

func (b *PollResultBuilder) WithDuration(duration time.Duration) *PollResultBuilder {
	b.result.Duration = duration
	return b
}

func (b *PollResultBuilder) WithError(err error) *PollResultBuilder {
	b.result.Error = err
	return b
}

func (b *PollResultBuilder) Build() PollResult {
	return b.result
}

// Summary accumulates the polls of one run.
type Summary struct {
	Polls         []PollResult
	Records       int
	SubRecords    int
	Emitted       int
	Bytes         int64
	Unchanged     int
	FailedPolls   int
	TotalDuration time.Duration
}

func NewSummary(expectedPolls int) *Summary {
	return &Summary{
		Polls: make([]PollResult, 0, max(expectedPolls, 0)),
	}
}

func (s *Summary) Add(builder *PollResultBuilder) PollResult {
	result := builder.Build()

	s.Polls = append(s.Polls, result)
	s.Records += result.Records
	s.SubRecords += result.SubRecords
	s.Emitted += result.Emitted
	s.Bytes += result.Bytes
	s.TotalDuration += result.Duration

	if result.Error != nil {
		s.FailedPolls++
	} else if !result.Changed {
		s.Unchanged++
	}
	return result
}

func (s *Summary) PollCount() int {
	return len(s.Polls)
}

func (s *Summary) BytesPerSecond() float64 {
	if s.TotalDuration == 0 {
		return 0
	}
	return float64(s.Bytes) / s.TotalDuration.Seconds()
}

func (s *Summary) FailurePercentage() float64 {
	if len(s.Polls) == 0 {
		return 0
	}
	return float64(s.FailedPolls) / float64(len(s.Polls)) * 100
}
