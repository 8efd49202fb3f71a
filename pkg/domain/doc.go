/*
Package domain contains the core domain models of the dna assistant.

It defines the values that flow through a conversation turn: tool schemas,
the per-conversation context, pending clarifications, execution specs and the
result records produced by execution backends. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - ToolSchema: a named business operation with its parameter description.
  - ConversationContext: ambient identifiers injected into prompts and dispatch.
  - PendingClarification: the tool invocation waiting for missing parameters.
  - Transcript: the chat track and the clarify track of one conversation.
  - ExecSpec: a tagged variant describing how a tool is executed.
  - Result: the open record returned by every execution backend.
*/
package domain
