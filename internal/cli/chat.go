package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/capstone-ai/dna/internal/presentation/tui"
	"github.com/capstone-ai/dna/internal/sanitize"
	"github.com/capstone-ai/dna/pkg/domain"
)

// Conversation is the part of the assistant the chat loop drives.
type Conversation interface {
	Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
	Reset(ctx context.Context, conversationID string) error
}

// ChatOptions configures an interactive session.
type ChatOptions struct {
	ConversationID string
	ProjectID      string
	ChatRoomID     string
	Mode           string
	MaxInputSize   int
}

const chatHelp = "명령: /mode auto|chat|tool, /reset, /help, /quit"

// RunChat reads utterances line by line from in until EOF, /quit or ctx is
// done, and writes rendered replies to out.
func RunChat(ctx context.Context, conv Conversation, r *tui.Renderer, in io.Reader, out io.Writer, opts ChatOptions) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
	}()

	mode := opts.Mode
	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case err := <-readErr:
			fmt.Fprintln(out)
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := runCommand(ctx, conv, out, opts.ConversationID, line, &mode)
			if err != nil {
				printSystemMessage(out, "%v", err)
			}
			if quit {
				return nil
			}
			continue
		}

		clean, err := sanitize.Input(line, opts.MaxInputSize)
		if err != nil {
			printSystemMessage(out, "입력이 거부되었습니다: %v", err)
			continue
		}

		resp, err := conv.Handle(ctx, domain.ChatRequest{
			ConversationID: opts.ConversationID,
			UserInput:      clean,
			Mode:           mode,
			ProjectID:      opts.ProjectID,
			ChatRoomID:     opts.ChatRoomID,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			printSystemMessage(out, "오류: %v", err)
			continue
		}
		fmt.Fprintln(out, r.Response(resp))
	}
}

func runCommand(ctx context.Context, conv Conversation, out io.Writer, cid, line string, mode *string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/reset":
		if err := conv.Reset(ctx, cid); err != nil {
			return false, fmt.Errorf("reset failed: %w", err)
		}
		printSystemMessage(out, "대화 '%s'를 초기화했습니다.", cid)
	case "/mode":
		if len(fields) < 2 {
			return false, errors.New("usage: /mode auto|chat|tool")
		}
		*mode = string(domain.ParseMode(fields[1]))
		printSystemMessage(out, "mode: %s", *mode)
	default:
		printSystemMessage(out, chatHelp)
	}
	return false, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, ">>> %s\n", fmt.Sprintf(format, args...))
}
