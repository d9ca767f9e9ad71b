package models

const (
	ChunkSize        = 700
	ChunkOverlap     = 50
	DefaultTopK      = 4
	ContextSeparator = "\n\n"
	RefusalText      = "I don't have enough information to answer that."
)

var (
	// AnswerPromptTemplate is rendered with the "context" and "input" variables.
	AnswerPromptTemplate = `<context>
{{.context}}
</context>
Question: {{.input}}

Answer the question based on the provided context only.
Please provide the most accurate and concise response based on the question. If the information is not in the context, say "` + RefusalText + `"
`
)
