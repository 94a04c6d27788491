// Package agent implements ReAct-style agents: strategies that map the
// transcript of a call plus its inputs onto the next core.Decision.
//
// An agent renders a prompt listing its tools and the expected
// Thought/Action/Action Input/Final Answer grammar, appends the transcript
// as a scratchpad, issues exactly one model generation per Plan and hands the
// completion to a ReActParser.
//
// Two prompt styles are available and share the same Decision contract:
//
//   - TypeZeroShot ("zero-shot-react-description"): a single plain-text prompt
//   - TypeChat ("chat-zero-shot-react-description"): a system message holding
//     tools and format instructions plus a user message holding the question
//     and the scratchpad
//
// The styles differ only in prompt layout and stop sequences.
package agent
