package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"newsletter-agent/pipeline"
)

const draftPreviewRunes = 1500

// promptApprover shows each draft on out and reads the answer from in: y
// approves, n asks for a reason, any other text is taken as the reason to
// reject. An empty line or end of input leaves the run waiting.
func promptApprover(in io.Reader, out io.Writer) pipeline.Approver {
	scanner := bufio.NewScanner(in)
	return func(ctx context.Context, req pipeline.ApprovalRequest) (pipeline.Approval, error) {
		if err := ctx.Err(); err != nil {
			return pipeline.Approval{}, err
		}

		rule := strings.Repeat("=", 70)
		fmt.Fprintf(out, "\n%s\n%s wants to write %s\n%s\n", rule, req.Stage, req.Path, rule)
		draft := []rune(req.Draft)
		if len(draft) > draftPreviewRunes {
			fmt.Fprintf(out, "%s\n...\n[%d more characters]\n", string(draft[:draftPreviewRunes]), len(draft)-draftPreviewRunes)
		} else {
			fmt.Fprintln(out, req.Draft)
		}
		fmt.Fprintln(out, strings.Repeat("-", 70))

		fmt.Fprint(out, "Approve this copy? [y/n, or type what to change; empty to decide later]: ")
		answer, ok := readLine(scanner)
		switch strings.ToLower(answer) {
		case "":
			if !ok {
				fmt.Fprintln(out)
			}
			return pipeline.Approval{}, pipeline.ErrNoDecision
		case "y", "yes":
			return pipeline.Approval{Approved: true}, nil
		case "n", "no":
			fmt.Fprint(out, "What should change? ")
			reason, _ := readLine(scanner)
			return pipeline.Approval{Reason: reason}, nil
		default:
			return pipeline.Approval{Reason: answer}, nil
		}
	}
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}
