package constant

const (
	// ConceptExtractionPromptV1 takes the source text as its only %s verb.
	ConceptExtractionPromptV1 = `Analyze the following text and identify the important concepts or technical topics with their positions:

%s

Pay special attention to:
1. Algorithmic processes and workflows
2. Data structures and their relationships
3. System architectures and components
4. Mathematical models and their parameters
5. Statistical relationships and correlations
6. Technical hierarchies and taxonomies

Rules:
1. Only extract concepts that are actually present in the text
2. For short text with only one concept, return just that single concept
3. For longer text, extract only the important concepts (max 5-7)
4. Do not invent or add concepts that aren't directly found in the text
5. Make sure to identify COMPLETE words and phrases, not partial ones
6. The startOffset and endOffset must capture entire words, not parts of words
7. Ensure concepts DO NOT overlap with each other
8. Do not extract the same concept multiple times
9. Avoid extracting concepts that are too similar to each other

For each concept:
1. Provide a concise title (max 4-5 words)
2. Write a 1-2 sentence description explaining the concept
3. Identify the startOffset (character position where this concept starts in the original text)
4. Identify the endOffset (character position where this concept ends in the original text)

Format your response as valid JSON with this structure:
[{
  "title": "concept title",
  "description": "concept description",
  "startOffset": number,
  "endOffset": number
}]`

	FormatInputStartMarker    = "#INPUT_TEXT"
	FormatInputEndMarker      = "#END_INPUT_TEXT"
	FormatConceptsStartMarker = "#CONCEPTS_TO_HIGHLIGHT"
	FormatConceptsEndMarker   = "#END_CONCEPTS_TO_HIGHLIGHT"

	FormatInstructionsV1 = `Convert the text between #INPUT_TEXT and #END_INPUT_TEXT into well-formatted HTML.

Requirements:
- Preserve ALL original content exactly (word-for-word)
- Convert section titles to heading elements (<h1>, <h2>, etc.)
- Make key terms and concepts bold with <strong> tags
- Use <em> for emphasis
- Structure content with appropriate <p>, <ul>, <ol>, <li> tags
- Group related content with <section> or <div> tags
- Use <blockquote> for quotes or examples`

	FormatConceptInstructionsV1 = `
- For each concept in CONCEPTS_TO_HIGHLIGHT:
  - Wrap ONLY the EXACT text with this format: <span class="highlighted-concept" data-concept-index="[index]" data-concept-title="[title]">[text]</span>
  - The data-concept-index attribute must contain the exact index provided
  - Treat each concept as a SINGLE, INDIVISIBLE unit - NEVER split a concept across multiple spans
  - When the same concept text appears multiple times, mark ONLY the FIRST occurrence
  - If concepts have overlapping words, prioritize the concept that starts first in the text

CRITICAL REQUIREMENTS FOR CONCEPTS:
1. DO NOT break words or phrases across multiple spans
2. Each concept MUST be wrapped in EXACTLY ONE span element
3. DO NOT create multiple spans for parts of the same concept
4. DO NOT modify the text inside the span in any way
5. When highlighting a concept, include the FULL words at both start and end
6. ALWAYS use the EXACT TEXT provided in the CONCEPTS_TO_HIGHLIGHT`

	FormatOutputRulesV1 = `
- The output MUST ONLY contain the formatted HTML
- DO NOT add any paragraph or block tags that would create additional space between this chunk and adjacent chunks

DO NOT include any meta-commentary, instructions, or explanations.
DO NOT prefix your response with anything like "Here's the formatted HTML".
DO NOT add comments about what you changed.
DO NOT include the #INPUT_TEXT or #END_INPUT_TEXT markers in your response.`

	// SVGFixedPromptV1 takes the content to visualize as its only %s verb.
	SVGFixedPromptV1 = `You are an expert at creating precise, technical SVG visualizations optimized for digital displays.

requirements:
1. Fixed dimensions: width="700" height="480" viewBox="0 0 700 480"
2. Create a good looking and technical SVG such that it will help the user quickly understand the concept in it.

Content to visualize:
%s

Return ONLY the SVG markup with no explanation. The SVG must adhere exactly to the dimensional constraints.`

	SVGResponsiveSystemPromptV1 = `You are an expert technical visualization assistant designed to convert complex technical text into visual representations.

CRITICAL REQUIREMENTS - your visualization MUST follow these rules:
- Set viewBox to exactly "0 0 1200 900" to provide ample space
- Set SVG width and height to "100%" to fill available space
- All text MUST have substantial margins (at least 30px) from any other element
- Text must NEVER overlap with other text or graphic elements
- All text must be horizontal and easily readable
- Use larger font sizes (20px minimum) for all text
- Ensure clean, professional layout with proper spacing between ALL elements

Return ONLY the SVG markup with no explanation.`

	// SVGResponsivePromptV1 takes the diagram type and the content to visualize.
	SVGResponsivePromptV1 = `Create a visual representation of the following %s as a clean, modern SVG:

%s

Generate ONLY the SVG markup. The SVG should be well-formatted and valid.
Use a clear visual hierarchy with a pleasing color scheme, and organize elements logically.
Make the visualization intuitive and focused on showing relationships between ideas.
Do not include any explanation text, markdown, or code blocks around your SVG code.
Your response must start with <svg and end with </svg> with no other text before or after.`

	AssistantPromptV1 = `You are an intelligent assistant that helps users understand text.
Explain in a way that is easy to understand.
Answer the question with best of your knowledge.
When referring to previous questions or answers, take into account the conversation history.
%s
CONTEXT:
%s

QUESTION:
%s`
)
