package agent

import (
	"fmt"
	"strings"
)

// Session keys under which each agent stores its final answer.
const (
	KeyInternalInsights = "internal_insights"
	KeyExternalTrends   = "external_trends"
	KeyTextContent      = "text_content"
	KeyFinalDesign      = "final_design"
)

// PromptPaths are the workspace-relative locations the prompts refer to.
type PromptPaths struct {
	ProductData  string
	StyleSamples string
	ContentFile  string
	HTMLFile     string
	ImagesDir    string
}

// Instructions go through FString formatting with the session values, so
// anything interpolated into them must not carry braces.
func braceFree(s string) string {
	return strings.NewReplacer("{", "(", "}", ")").Replace(s)
}

func dataCollectionPrompt(p PromptPaths, hasPDFTools bool) string {
	pdfHint := `The PDF reader server is not available in this run. Use read_product_document
for every file, including PDFs.`
	if hasPDFTools {
		pdfHint = `PDF reader tools from an MCP server are available (their names vary, for
example extract_text or read_pdf). Prefer them for PDF files and fall back to
read_product_document if they fail.`
	}

	return braceFree(fmt.Sprintf(`You are DataCollectionAgent, a specialist in reading internal product material.

Material lives under %s. Start with list_product_documents to see every file,
then read each of them. %s

Goals:
1. Find the two or three strongest selling points of the product.
2. For each selling point, collect the evidence behind it: metrics, examples,
   customer quotes, and themes that keep coming back.

Rules:
- Newer material wins over older versions of the same fact.
- Points that are repeated or emphasised in the material weigh more.
- Only report facts that are stated in the material. Never guess.

Reply with plain structured text for the next agents:
- Selling points (two or three)
- Supporting evidence under each point
- Any numbers worth quoting

Always answer with text. An empty answer breaks the workflow.`, p.ProductData, pdfHint))
}

func trendFindingPrompt(topic string) string {
	return braceFree(fmt.Sprintf(`You are TrendFindingAgent, a researcher watching the public web.
Another agent covers the internal product material; you only look outward.

Focus: recent developments in %s.

Use web_search to find recent articles and fetch to read the promising ones.
Issue several tool calls in one response when you need more than one page.

Report exactly three developments. For each give one sentence on what it is,
one on where it applies, and one on the likely impact.

Keep the whole report under one hundred words, bullet points only.

Always answer with text. An empty answer breaks the workflow.`, topic))
}

func contentWritingPrompt(p PromptPaths, topic string, needsApproval bool) string {
	approval := ""
	if needsApproval {
		approval = `

A reviewer approves every write_file call before the file is saved. When
write_file reports that the write was disapproved, revise the copy using the
reason it gives and call write_file again with the new version.`
	}

	return braceFree(fmt.Sprintf(`You are ContentWritingAgent, a copywriter for %s.
Your readers are engineers and the people who buy tools for them.

You receive two research notes in the conversation:
- internal_insights: selling points found in the product material
- external_trends: current industry developments

Write the text of one newsletter email:
1. A short title that makes people open it.
2. A subtitle that states the value plainly.
3. Two to four bullet points that connect the product findings to the
   industry trends and say why this matters now.
4. A clear call to action such as Learn more or Try the platform.

Style: concise, no buzzwords, concrete outcomes such as time saved or fewer
board respins. Assume basic PCB knowledge but explain manufacturing jargon.

When the text is done, save it with write_file to %s and then reply with the
same text. The design agent builds the HTML from that file.%s

Always answer with text. An empty answer breaks the workflow.`, topic, p.ContentFile, approval))
}

func visualDesignPrompt(p PromptPaths, hasImageTools bool) string {
	imageHint := fmt.Sprintf(`No image generator is available. Reference images found with web_search by
URL, or leave clearly marked placeholders for files under %s.`, p.ImagesDir)
	if hasImageTools {
		imageHint = fmt.Sprintf(`Image generation tools are available. Save generated images under %s and
reference them with relative paths.`, p.ImagesDir)
	}

	return braceFree(fmt.Sprintf(`You are VisualDesignAgent, an HTML email designer.
You turn finished newsletter copy into a clean, modern HTML email.

Work in this order:
1. If the copy is not in the conversation, call read_newsletter_content to load
   %s.
2. Call list_html_files on %s and read the samples with read_html_file. Take
   the colours, button shapes, corner radius, and overall feel from them.
3. Use web_search for current newsletter layouts and for pictures that fit
   the copy.
4. %s

The HTML must be:
- a single column that works on phones
- a header with a company name or logo placeholder
- the title and subtitle from the copy, then the body
- one call to action button in the brand colour
- styled with inline CSS only, without external fonts or scripts

Save the complete document with write_file to %s. Finally reply with the full
HTML inside an html code fence.`, p.ContentFile, p.StyleSamples, imageHint, p.HTMLFile))
}

func coordinatorPrompt(p PromptPaths, researchTeam string) string {
	return braceFree(fmt.Sprintf(`You are marketing_coordinator and you run the newsletter workflow.

Always start by calling check_newsletter_content_exists. Do not describe your
plan, act on the result right away.

If %s does not exist:
1. Call %s to collect internal_insights and external_trends.
2. Call ContentWritingAgent with both research notes to write and save the copy.
3. Call VisualDesignAgent with the copy to build the HTML.

If %s exists:
1. Skip research and writing.
2. Call VisualDesignAgent directly. It reads the existing copy from the file.

Never call DataCollectionAgent or TrendFindingAgent on their own; the research
team runs both.`, p.ContentFile, researchTeam, p.ContentFile))
}

// RunRequest is the user message that starts a coordinator run.
const RunRequest = "Generate a newsletter HTML file. Show me the intermediate steps."
