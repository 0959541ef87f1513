package trip

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutline_SingleDaySinglePlace(t *testing.T) {
	tripID := uuid.New()
	outline := "### Day 1: Arrival\n" +
		"#### Place 1: Airport\n" +
		"**Estimated Duration:** 30 minutes\n" +
		"* Land\n" +
		"* Collect luggage\n"

	details := parseOutline(outline, tripID, "en")
	require.Len(t, details, 1)

	d := details[0]
	assert.Equal(t, tripID, d.TripID)
	assert.Equal(t, "Day 1 - Arrival", d.Title)
	assert.Equal(t, 30, d.EstimatedDuration)
	assert.Equal(t, "en", d.Language)
	assert.False(t, d.Completed)
	assert.Contains(t, d.HTML, "Place 1: Airport")
	assert.Contains(t, d.HTML, "* Land")
	assert.Contains(t, d.HTML, "* Collect luggage")
	assert.NotEqual(t, uuid.Nil, d.ID)
}

func TestParseOutline_MultipleDaysAndPlaces(t *testing.T) {
	outline := "Some preamble the model added.\n" +
		"### Day 1: Lisbon\n" +
		"#### Place 1: Belem Tower\n" +
		"**Estimated Duration:** 90 minutes\n" +
		"* Walk the riverfront\n" +
		"#### Place 2: Time Out Market\n" +
		"**Estimated Duration:** 60 minutes\n" +
		"* Lunch\n" +
		"* Try pasteis de nata\n" +
		"### Day 2: Sintra\n" +
		"#### Place 1: Pena Palace\n" +
		"**Estimated Duration:** 120 minutes\n" +
		"* Tour the palace\n"

	details := parseOutline(outline, uuid.New(), "en")
	require.Len(t, details, 3)

	assert.Equal(t, "Day 1 - Lisbon", details[0].Title)
	assert.Equal(t, "Day 1 - Lisbon", details[1].Title)
	assert.Equal(t, "Day 2 - Sintra", details[2].Title)

	assert.Equal(t, 90, details[0].EstimatedDuration)
	assert.Equal(t, 60, details[1].EstimatedDuration)
	assert.Equal(t, 120, details[2].EstimatedDuration)

	// Place two's bullets must not bleed into place one.
	assert.NotContains(t, details[0].HTML, "Lunch")
	assert.Contains(t, details[1].HTML, "* Lunch")
	assert.Contains(t, details[1].HTML, "* Try pasteis de nata")
	// Day two's place must not bleed into day one.
	assert.NotContains(t, details[1].HTML, "Pena Palace")
	assert.Contains(t, details[2].HTML, "Place 1: Pena Palace")
}

func TestParseOutline_DetailListShape(t *testing.T) {
	outline := "### Detail 1: Packing checklist\n" +
		"**Estimated Duration:** 45 minutes\n" +
		"some prose\n" +
		"### Detail 2: Visa paperwork\n" +
		"no duration here\n"

	details := parseOutline(outline, uuid.New(), "pt")
	require.Len(t, details, 2)

	assert.Equal(t, "Packing checklist", details[0].Title)
	assert.Equal(t, 45, details[0].EstimatedDuration)
	assert.Empty(t, details[0].HTML, "detail-list shape defers content to the enricher")
	assert.True(t, details[0].PendingEnrichment())

	assert.Equal(t, "Visa paperwork", details[1].Title)
	assert.Equal(t, 0, details[1].EstimatedDuration, "missing duration falls back to zero")
	assert.Empty(t, details[1].HTML)
	assert.Equal(t, "pt", details[1].Language)
}

func TestParseOutline_ItineraryShapeWinsOverDetailShape(t *testing.T) {
	outline := "### Day 1: Porto\n" +
		"#### Place 1: Ribeira\n" +
		"**Estimated Duration:** 60 minutes\n" +
		"* Stroll\n" +
		"### Detail 1: Leftover heading\n"

	details := parseOutline(outline, uuid.New(), "en")
	require.Len(t, details, 1)
	assert.Equal(t, "Day 1 - Porto", details[0].Title)
}

func TestParseOutline_NoMarkers(t *testing.T) {
	details := parseOutline("The model apologized and produced no itinerary at all.", uuid.New(), "en")
	assert.Empty(t, details)
}

func TestParseOutline_DayWithoutPlaces(t *testing.T) {
	outline := "### Day 1: Rest day\nNothing scheduled.\n"
	details := parseOutline(outline, uuid.New(), "en")
	assert.Empty(t, details, "a day heading with no place sub-headings yields no details")
}
