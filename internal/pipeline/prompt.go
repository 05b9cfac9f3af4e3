package pipeline

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// NoSpeechMarker replaces the transcript excerpt when a module has none.
const NoSpeechMarker = "No speech detected in this segment."

const contentPrompt = `You are an expert Professor creating a concise course module for the topic: "%s".
Focus on the provided video frames and transcript excerpt, which correspond to the segment from %.2f seconds to %.2f seconds.

Output strictly in Markdown with these specific headers. Keep content clear, concise, and bite-sized (Cue Card style).
Write all content strictly in English, even if the video or transcript is in another language.

## Objectives
- Bullet points of what is learned.

## Notes
- Concise technical explanation.
- Bullet points for key concepts.

## Definitions
- Key terms defined briefly.

## Practical Application
- Real-world usage examples.

Do not include a quiz here. Do not header anything else.

Transcript excerpt:
%s`

func buildPrompt(m types.Module, slice []types.TranscriptSegment) string {
	excerpt := NoSpeechMarker
	if len(slice) > 0 {
		excerpt = strings.TrimRight(types.FormatSegments(slice), "\n")
	}
	return fmt.Sprintf(contentPrompt, m.TopicName, m.StartTime, m.EndTime, excerpt)
}
