package rag

import "strings"

// BuildPrompt renders persona, tagged context and the verbatim question into
// one generation request. Pure function: identical inputs produce
// byte-identical output, so prompt construction is testable without any
// model call. The instruction block is best effort: the parser, not the
// model, enforces the output contract.
func BuildPrompt(persona string, ctx Context, question string) string {
	var sb strings.Builder
	sb.WriteString("System: ")
	sb.WriteString(persona)
	sb.WriteString("\n\nContext (use ONLY this information to answer):\n")
	sb.WriteString(ctx.Render())
	sb.WriteString("\n\nUser Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("- Answer the question using ONLY the context provided above\n")
	sb.WriteString("- After each statement drawn from a source, cite it as [cite: Sn] using that source's tag\n")
	sb.WriteString("- Only cite tags that appear in the context; never invent a tag\n")
	sb.WriteString("- If the context doesn't contain relevant information, say \"I don't have enough information in the course materials to answer this question\"\n")
	sb.WriteString("- End your reply with a line of the form CONFIDENCE: <value between 0.0 and 1.0> estimating how well the context supports your answer\n")
	sb.WriteString("\nAnswer:")
	return sb.String()
}
