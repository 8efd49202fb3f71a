/*
Package dna is a conversational project assistant. Each utterance becomes a
conversational reply, a call to a registered business tool, or a
clarification question when the tool still lacks required parameters.

# Flow

A turn is routed by the language model to a tool name or to plain chat.
Tool turns extract parameters, bind values from the conversation context,
and ask for whatever is still missing across as many turns as needed. Once
complete, the call is dispatched to a local function, an HTTP API or a
remote-call endpoint, and the result is phrased as one short Korean
sentence. Meeting summaries chain several of these steps: fetch the chat
log, summarize it, save the minutes.

# Usage

	completer := openai.New(openai.Config{Provider: "vllm", Model: "midm"})
	assistant, err := dna.New(completer,
		dna.WithEndpoints(dispatch.Endpoints{TodoCreate: "http://api/todos"}),
	)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := assistant.Handle(ctx, domain.ChatRequest{
		ConversationID: "55",
		UserInput:      "내일까지 회의록 정리 할 일 추가해줘",
	})

The same assistant is served over HTTP (pkg/adapters/http), MCP
(pkg/adapters/mcp) and the terminal (cmd/dna chat).
*/
package dna
