package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"Travia/internal/session"
	"Travia/internal/transport"
)

var (
	promptColor = color.New(color.FgGreen, color.Bold)
	botColor    = color.New(color.FgCyan)
	infoColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
)

// SessionID returns the id of the interactive session.
func (cb *ChatBot) SessionID() string {
	return cb.sessionID
}

// handleCommand handles special commands
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string, out io.Writer) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new-session":
		cb.sessions.Reset(cb.sessionID)
		cb.sessionID = session.NewID()
		infoColor.Fprintln(out, "Started new session:", cb.sessionID)
		return false, nil

	case "/whoami":
		st, ok := cb.sessions.Peek(cb.sessionID)
		if !ok {
			infoColor.Fprintln(out, "Nothing remembered yet.")
			return false, nil
		}
		name := st.Name
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(out, "Name: %s\n", name)
		fmt.Fprintf(out, "Last query: %s\n", st.LastQuery)
		if st.LastBest != nil {
			fmt.Fprintf(out, "Last suggestion: %s (%s) %s → %s\n",
				st.LastBest.Name, st.LastBest.Mode, st.LastBest.Origin, st.LastBest.Destination)
		}
		return false, nil

	case "/search":
		f, err := parseFilter(parts[1:], "/search")
		if err != nil {
			return false, err
		}
		results, err := cb.Search(ctx, f)
		if err != nil {
			return false, fmt.Errorf("failed to search: %w", err)
		}
		if len(results) == 0 {
			infoColor.Fprintln(out, "No matching routes.")
			return false, nil
		}
		for i, opt := range results {
			fmt.Fprintf(out, "%d. [%s] %s %s → %s ₹%g (%g mins, rating %g)\n",
				i+1, opt.Mode, opt.Name, opt.Origin, opt.Destination, opt.Price, opt.DurationMins, opt.Rating)
		}
		return false, nil

	case "/compare":
		f, err := parseFilter(parts[1:], "/compare")
		if err != nil {
			return false, err
		}
		matches, err := cb.Compare(ctx, f)
		if err != nil {
			return false, fmt.Errorf("failed to compare: %w", err)
		}
		if len(matches) == 0 {
			infoColor.Fprintln(out, "No matching routes.")
			return false, nil
		}
		for _, m := range matches {
			fmt.Fprintf(out, "\n%s (%s) %s → %s\n", m.Transport.Name, m.Transport.Mode, m.Transport.Origin, m.Transport.Destination)
			for _, o := range m.Offers {
				fmt.Fprintf(out, "  %-18s ₹%.2f (-%g%%) ₹%.2f\n", o.Site, o.ListPrice, o.Discount, o.FinalPrice)
			}
			if m.BestOffer != nil {
				botColor.Fprintf(out, "  Best: %s\n", m.BestOffer.CTAText)
			}
		}
		fmt.Fprintln(out)
		return false, nil

	case "/help":
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  /quit, /exit                          - Exit the assistant")
		fmt.Fprintln(out, "  /new-session                          - Forget this conversation")
		fmt.Fprintln(out, "  /whoami                               - Show what the assistant remembers")
		fmt.Fprintln(out, "  /search <origin> <destination> [mode] - List matching routes")
		fmt.Fprintln(out, "  /compare <origin> <destination> [mode] - Compare booking websites")
		fmt.Fprintln(out, "  /help                                 - Show this help message")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", parts[0])
	}
}

func parseFilter(args []string, cmd string) (transport.Filter, error) {
	if len(args) < 2 {
		return transport.Filter{}, fmt.Errorf("usage: %s <origin> <destination> [mode]", cmd)
	}
	f := transport.Filter{Origin: args[0], Destination: args[1]}
	if len(args) > 2 {
		mode, ok := transport.ParseMode(args[2])
		if !ok {
			return transport.Filter{}, fmt.Errorf("unknown mode: %s", args[2])
		}
		f.Mode = mode
	}
	return f, nil
}

// Run reads messages from in until EOF or /quit, writing replies to out.
func (cb *ChatBot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	botColor.Fprintln(out, "=== TRAViA ===")
	fmt.Fprintf(out, "Session: %s\n", cb.sessionID)
	fmt.Fprintln(out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		promptColor.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input, out)
			if err != nil {
				errorColor.Fprintf(out, "Error: %v\n", err)
				cb.logger.Error("command error", "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		reply, _, err := cb.Reply(ctx, cb.sessionID, input)
		if err != nil {
			errorColor.Fprintf(out, "Error: %v\n", err)
			cb.logger.Error("failed to reply", "error", err)
			continue
		}
		botColor.Fprintf(out, "TRAViA: %s\n\n", reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintln(out, "Goodbye!")
	return nil
}
