package trip

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripforge/tripforge/internal/types"
)

// The outline text is generation-service prose following the prompt's
// expected format, not a guaranteed grammar. Parsing therefore pattern-matches
// the two known heading shapes and extracts whatever fits; text with zero
// matching headings yields an empty slice, never an error.
var (
	dayRe      = regexp.MustCompile(`### Day (\d+): (.*?)\n`)
	placeRe    = regexp.MustCompile(`#### Place (\d+): (.*?)\n\*\*Estimated Duration:\*\* (\d+) minutes`)
	detailRe   = regexp.MustCompile(`### Detail (\d+): (.*?)\n`)
	durationRe = regexp.MustCompile(`\*\*Estimated Duration:\*\* (\d+) minutes`)
	activityRe = regexp.MustCompile(`(?m)^\* .+`)
)

// parseOutline converts one generated outline into an ordered sequence of
// detail records for the given trip.
//
// Two heading shapes are recognized. The itinerary shape ("### Day N: Title"
// with "#### Place M: Name" sub-headings) produces one detail per place with
// the outline text as its body. The detail-list shape ("### Detail N: Title")
// produces one detail per heading with an empty body, deferring content to
// the enricher. The scan position only ever advances; sub-structure is
// extracted from the span between one heading and the next of the same kind.
func parseOutline(outline string, tripID uuid.UUID, language string) []*types.Detail {
	details := parseItineraryShape(outline, tripID, language)
	if len(details) == 0 {
		details = parseDetailListShape(outline, tripID, language)
	}
	return details
}

func parseItineraryShape(outline string, tripID uuid.UUID, language string) []*types.Detail {
	var details []*types.Detail
	now := time.Now()

	pos := 0
	for {
		loc := dayRe.FindStringSubmatchIndex(outline[pos:])
		if loc == nil {
			break
		}
		dayNumber := atoiOr(outline[pos+loc[2]:pos+loc[3]], 1)
		dayTitle := outline[pos+loc[4] : pos+loc[5]]

		// Span for this day runs from the end of its heading to the start of
		// the next day heading, or end of text.
		dayStart := pos + loc[1]
		nextDayPos := len(outline)
		if next := dayRe.FindStringIndex(outline[dayStart:]); next != nil {
			nextDayPos = dayStart + next[0]
		}
		dayContent := outline[dayStart:nextDayPos]
		pos = nextDayPos

		placePos := 0
		for {
			placeLoc := placeRe.FindStringSubmatchIndex(dayContent[placePos:])
			if placeLoc == nil {
				break
			}
			placeNumber := atoiOr(dayContent[placePos+placeLoc[2]:placePos+placeLoc[3]], 1)
			placeName := dayContent[placePos+placeLoc[4] : placePos+placeLoc[5]]
			estimatedDuration := atoiOr(dayContent[placePos+placeLoc[6]:placePos+placeLoc[7]], 0)

			placeStart := placePos + placeLoc[1]
			nextPlacePos := len(dayContent)
			if next := placeRe.FindStringIndex(dayContent[placeStart:]); next != nil {
				nextPlacePos = placeStart + next[0]
			}
			placeContent := dayContent[placeStart:nextPlacePos]
			placePos = nextPlacePos

			bullets := strings.Join(activityRe.FindAllString(placeContent, -1), "\n")

			details = append(details, &types.Detail{
				ID:                uuid.New(),
				TripID:            tripID,
				Title:             fmt.Sprintf("Day %d - %s", dayNumber, dayTitle),
				HTML:              fmt.Sprintf("Place %d: %s\n%s", placeNumber, placeName, bullets),
				EstimatedDuration: estimatedDuration,
				Language:          language,
				Completed:         false,
				CreatedAt:         now,
				UpdatedAt:         now,
			})
		}
	}
	return details
}

func parseDetailListShape(outline string, tripID uuid.UUID, language string) []*types.Detail {
	var details []*types.Detail
	now := time.Now()

	pos := 0
	for {
		loc := detailRe.FindStringSubmatchIndex(outline[pos:])
		if loc == nil {
			break
		}
		title := outline[pos+loc[4] : pos+loc[5]]

		spanStart := pos + loc[1]
		nextPos := len(outline)
		if next := detailRe.FindStringIndex(outline[spanStart:]); next != nil {
			nextPos = spanStart + next[0]
		}
		span := outline[spanStart:nextPos]
		pos = nextPos

		estimatedDuration := 0
		if m := durationRe.FindStringSubmatch(span); m != nil {
			estimatedDuration = atoiOr(m[1], 0)
		}

		// Body stays empty here: content generation is deferred to the
		// enricher, and readers treat "" as the pending sentinel.
		details = append(details, &types.Detail{
			ID:                uuid.New(),
			TripID:            tripID,
			Title:             title,
			HTML:              "",
			EstimatedDuration: estimatedDuration,
			Language:          language,
			Completed:         false,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	return details
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
