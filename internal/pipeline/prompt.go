// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"fmt"
	"text/template"
)

// generationPromptTmpl is the single end-to-end prompt sent to the model for
// each material page. It parses, classifies, and transforms in one call so a
// page costs exactly one API request.
var generationPromptTmpl = template.Must(template.New("generation").Parse(`You are an expert curriculum developer. Your task is to perform a full analysis of a single page from a JEE textbook.

TASK (3 steps):
1. **Parse:** Identify all distinct questions on the page. A question typically starts with a number (e.g., "1.", "Example 4.") and may be followed by options like "(a)", "(b)", "(c)", "(d)".
2. **Classify:** For each question found, classify its topic by choosing the BEST match from the "Available Topics" list below.
3. **Transform:** For each classified question, transform it into a high-quality {{.TargetExam}} style question suitable for American high school students. Rephrase the question, change the numerical values, create four new options (A, B, C, D), and write a clear step-by-step explanation. The new question must test the same fundamental principle as the original.

Available Topics:
{{range .Topics}}- {{.}}
{{end}}
CRITICAL OUTPUT FORMAT:
Your entire response MUST be a single, valid JSON formatted list ` + "`[]`" + `. Each object in the list represents ONE processed question and must follow this exact schema:
{
  "original_question": "The question text as parsed from the source.",
  "original_options": ["Option A", "Option B"],
  "classified_topic": "The single best topic from the provided list.",
  "transformed_question": "The new, rephrased {{.TargetExam}} style question.",
  "transformed_options": ["New Option A", "New Option B", "New Option C", "New Option D"],
  "correct_answer": "The letter of the correct new option (e.g., 'C').",
  "explanation": "The detailed step-by-step explanation for the new question."
}
If no questions are found on the page, return an empty list ` + "`[]`" + `.

Text to Analyze (from page {{.PageNum}} of {{.SourceFile}}):
---
{{.PageText}}
---
`))

// pageSurveyPromptTmpl asks for a one-word verdict on whether a page is
// worth feeding to the generation pipeline. Only the first part of the page
// is sent to keep the check cheap.
var pageSurveyPromptTmpl = template.Must(template.New("survey").Parse(`Analyze the following text from a single textbook page.
Does this page primarily contain practice questions, exercises, or solved examples?
Answer with a single word: YES or NO.

Text to analyze:
---
{{.PageText}}
---
`))

type promptData struct {
	TargetExam string
	Topics     []string
	SourceFile string
	PageNum    int
	PageText   string
}

func renderGenerationPrompt(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := generationPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering generation prompt: %w", err)
	}
	return buf.String(), nil
}

// surveySnippetLen caps how much page text the survey prompt includes.
const surveySnippetLen = 2000

func renderSurveyPrompt(pageText string) (string, error) {
	if len(pageText) > surveySnippetLen {
		pageText = pageText[:surveySnippetLen]
	}
	var buf bytes.Buffer
	if err := pageSurveyPromptTmpl.Execute(&buf, struct{ PageText string }{pageText}); err != nil {
		return "", fmt.Errorf("rendering survey prompt: %w", err)
	}
	return buf.String(), nil
}
