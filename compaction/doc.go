// Package compaction replaces contiguous runs of conversation entries with
// a single summary entry and builds the prompts used to generate that
// summary.
//
// # Compaction
//
// An Engine edits a conversation's live entry sequence. Compact removes an
// inclusive range of entries and inserts one summary entry in its place
// whose archive holds the removed entries in their original order:
//
//	engine := compaction.NewEngine(conv, settings, assembler)
//	idx, err := engine.Compact(types.Range{Start: 1, End: 2})
//	// [A, B, C, D] -> [A, Summary(archive=[B, C], text="Generating..."), D]
//	_ = engine.CompleteCompaction(idx, "B and C talked.")
//	engine.Restore(idx) // [A, B, C, D]
//
// Archives nest: a range that already contains summaries can be compacted
// again. Compact only ever consumes entries of the live sequence, so the
// resulting archive tree is acyclic.
//
// # Prompt Assembly
//
// The Assembler turns a target range into generation prompt text sized to
// the backend's context window:
//
//	lead instruction
//	<history markers> older entries, newest that fit </history markers>
//	mid instruction
//	<summary markers> entries to summarize </summary markers>
//	trailing instruction
//
// Instructions and the content to summarize are never truncated; if they do
// not fit the assembler fails with a *BudgetExceededError. History is
// scanned backwards from the range start and silently stops at the first
// entry that would overflow the budget.
//
// # Token Counting
//
// Token counts come from a TokenCounter. ApproximateCounter estimates ~4
// characters per token; CachingCounter memoizes a slower counter such as
// the Anthropic token counting API.
package compaction
