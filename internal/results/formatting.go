package results

import (
	"fmt"
	"io"
)

const rule = "--------------------------------------------------------------------------------"

// FormatPoll writes a one-line description of r.
func FormatPoll(w io.Writer, r PollResult) error {
	status := "ok"
	switch {
	case r.Error != nil:
		status = fmt.Sprintf("failed: %v", r.Error)
	case !r.Changed:
		status = "unchanged"
	}
	_, err := fmt.Fprintf(w, "%s (%s): %s, %d record(s), %d sub-record(s), %d emitted, %d bytes, digest %016x in %d ms\n",
		r.Input, r.Document, status, r.Records, r.SubRecords, r.Emitted, r.Bytes, r.Digest, r.Duration.Milliseconds())
	return err
}

// FormatText writes the per-poll lines followed by the run totals.
func (s *Summary) FormatText(w io.Writer) error {
	if len(s.Polls) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, rule); err != nil {
		return err
	}
	for _, r := range s.Polls {
		if err := FormatPoll(w, r); err != nil {
			return err
		}
	}
	if len(s.Polls) == 1 {
		return nil
	}

	if _, err := fmt.Fprintln(w, rule); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Polls:        %d (%d unchanged, %d failed, %.1f%%)\n",
		len(s.Polls), s.Unchanged, s.FailedPolls, s.FailurePercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Records:      %d (+%d sub-records, %d emitted)\n", s.Records, s.SubRecords, s.Emitted); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Bytes:        %d (%.0f/s)\n", s.Bytes, s.BytesPerSecond()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Duration:     %d ms\n", s.TotalDuration.Milliseconds()); err != nil {
		return err
	}
	return nil
}
