package trip

import "fmt"

func generateOutlinePrompt(title, destination string, budget int, language string) string {
	return fmt.Sprintf(`
        **System Prompt (SP):** You are an expert travel planner creating a structured, day-by-day trip itinerary.

        **Prompt (P):** Create a travel outline titled '%s' to the destination '%s'. The trip should be planned with a main theme of '%s', and presented in %s. The itinerary should fit within a budget of %d.

        Generate a day-by-day schedule for the trip, including specific places to visit, activities, and an estimated time duration for each. Use a structured format for each day and activity.

        **Expected Format (EF):**
        ### Day [number]: [Day Title]
        #### Place [number]: [Place Name]
        **Estimated Duration:** [Duration] minutes

        * [Activity description]
        * [Additional information as needed]

        **Roleplay (RP):** As a travel planner, make the plan engaging and realistic.
        `, title, destination, title, language, budget)
}

func generateDetailDraftPrompt(detailTitle, tripTitle, language string) string {
	return fmt.Sprintf(`
        **System Prompt (SP):** You are writing detailed content for a trip detail.

        **Prompt (P):** Write content for detail '%s' of the trip '%s' in %s. Ensure clarity, detailed explanations, and structured markdown.

        **Expected Format (EF):**
        - detailed markdown format for this detail.

        **Roleplay (RP):** Provide as much educational content as possible.
        `, detailTitle, tripTitle, language)
}

func generateDetailHTMLPrompt(outline, language string) string {
	return fmt.Sprintf(`Generate a comprehensive HTML-formatted trip detail with examples, links and images, based on the outline: '%s' in %s. `+
		`Each section should be structured with appropriate HTML tags, including <h1> for the main title, `+
		`<h2> for detail titles, <h3> for subheadings, and <p> for paragraphs. `+
		`Include well-organized, readable content that aligns with the trip's outline, ensuring each section is `+
		`clear and logically flows from one to the next. Avoid markdown format entirely, and provide inline HTML styling `+
		`if necessary to enhance readability. The HTML content should be well-formatted, semantically correct, and `+
		`cover all relevant subtopics in depth to create an engaging reading experience. `+
		`Make sure to always return back with html formatted text and not empty response.`,
		outline, language)
}
