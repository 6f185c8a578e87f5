// Package subtitle parses SubRip cue text and bulk-creates text clips from
// the parsed cues.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/framecut/framecut/internal/timeline"
)

// timestampRe matches "HH:MM:SS,mmm --> HH:MM:SS,mmm". A dot separator for
// milliseconds is tolerated.
var timestampRe = regexp.MustCompile(
	`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})`)

// Parse reads SubRip cues from r. Malformed input is rejected with a
// specific error; no partial cue list is returned.
func Parse(r io.Reader) ([]timeline.Cue, error) {
	scanner := bufio.NewScanner(r)
	var cues []timeline.Cue
	var cur *timeline.Cue
	var textLines []string
	lineNo := 0

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(textLines, "\n")
			cues = append(cues, *cur)
			cur = nil
			textLines = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		line = strings.TrimPrefix(line, "\ufeff")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		if cur == nil {
			// Expect a cue index followed by the timing line.
			index, err := strconv.Atoi(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: expected cue index, got %q", lineNo, trimmed)
			}
			if !scanner.Scan() {
				return nil, fmt.Errorf("line %d: cue %d has no timing line", lineNo, index)
			}
			lineNo++
			timing := strings.TrimSpace(scanner.Text())
			start, end, err := parseTiming(timing)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if end < start {
				return nil, fmt.Errorf("line %d: cue %d ends before it starts", lineNo, index)
			}
			cur = &timeline.Cue{Index: index, Start: start, End: end}
			continue
		}
		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading subtitles: %w", err)
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("no cues found")
	}
	return cues, nil
}

func parseTiming(line string) (start, end float64, err error) {
	m := timestampRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	toSeconds := func(h, min, sec, ms string) float64 {
		hh, _ := strconv.Atoi(h)
		mm, _ := strconv.Atoi(min)
		ss, _ := strconv.Atoi(sec)
		mmm, _ := strconv.Atoi(ms)
		return float64(hh)*3600 + float64(mm)*60 + float64(ss) + float64(mmm)/1000
	}
	return toSeconds(m[1], m[2], m[3], m[4]), toSeconds(m[5], m[6], m[7], m[8]), nil
}

// SubtitleTrackName is the name of the dedicated track cue imports land on.
const SubtitleTrackName = "Subtitles"

// Style carries the visual defaults applied to imported cue clips.
type Style struct {
	FontFamily string
	FontSize   float64
	Color      string
	Background string
}

// Import bulk-creates one text clip per cue on a dedicated text track,
// positioned at the cue's timing, and returns the track id. The track is
// created at the top of the stack if the project does not have one yet.
func Import(store *timeline.Store, cues []timeline.Cue, style Style) string {
	// One checkpoint before the first mutation, so undo rolls back the
	// whole import including a track created for it.
	store.SaveToHistory()

	trackID := ""
	for _, t := range store.Tracks() {
		if t.Kind == timeline.TrackText && t.Name == SubtitleTrackName {
			trackID = t.ID
			break
		}
	}
	if trackID == "" {
		t := store.InsertTrackAbove(timeline.TrackText, "")
		store.UpdateTrack(t.ID, func(tr *timeline.Track) { tr.Name = SubtitleTrackName })
		trackID = t.ID
	}
	for _, cue := range cues {
		dur := cue.End - cue.Start
		if dur < timeline.MinClipDuration {
			dur = timeline.MinClipDuration
		}
		store.AddClip(timeline.Clip{
			ID:        timeline.NewID(),
			TrackID:   trackID,
			StartTime: cue.Start,
			Duration:  dur,
			Kind:      timeline.KindText,
			Text: &timeline.TextClip{
				Text:       cue.Text,
				FontFamily: style.FontFamily,
				FontSize:   style.FontSize,
				Color:      style.Color,
				Background: style.Background,
				Align:      "center",
			},
		})
	}
	return trackID
}
