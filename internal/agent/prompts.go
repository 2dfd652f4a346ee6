// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import "fmt"

// correctiveMessage is appended when the model replies with plain text
// instead of a tool call.
const correctiveMessage = "Please respond by calling one of the provided tools."

// mainPrompt instructs the planner. The schema is embedded verbatim so the
// model knows the exact shape it must eventually submit.
func mainPrompt(schema, topic string) string {
	return fmt.Sprintf(`You are doing web research on behalf of a user. You are trying to find out this information:

<info>
%s
</info>

You have access to the following tools:

- search: query a web search engine and get back result rows
- scrape_website: fetch a page and get notes relevant to the information you need
- submit_info: call this when you have gathered all the relevant info

Here is the information you have about the topic you are researching:

Topic: %s`, schema, topic)
}

// scrapePrompt asks the model for notes on fetched page content, tailored
// to the information being gathered.
func scrapePrompt(schema, url, content string) string {
	return fmt.Sprintf(`You are doing web research on behalf of a user. You are trying to find out this information:

<info>
%s
</info>

You just scraped the following website: %s

Based on the website content below, jot down some notes about the website.

<Website content>
%s
</Website content>`, schema, url, content)
}

// judgePrompt asks an independent judge pass for a structured verdict on
// submitted info.
func judgePrompt(schema, topic, info string) string {
	if info == "" {
		info = "No info extracted yet"
	}
	return fmt.Sprintf(`You are evaluating the quality and completeness of extracted information.

Extraction Schema:
%s

Topic: %s

Current Extracted Info:
%s

Please evaluate whether the current extracted information is satisfactory and complete according to the schema.

You must provide:
1. At least 3 reasons for your evaluation
2. A clear yes/no decision on whether the info is satisfactory
3. If not satisfactory, specific instructions on what needs to be improved

Respond in the following JSON format:
{
    "reasons": ["reason1", "reason2", "reason3"],
    "is_satisfactory": true or false,
    "improvement_instructions": "specific instructions if not satisfactory"
}`, schema, topic, info)
}
