package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/fitness-proxy/garmin-proxy/internal/config"
	"github.com/fitness-proxy/garmin-proxy/pkg/credentials"
	"github.com/fitness-proxy/garmin-proxy/pkg/garmin"
)

func NewTokensCommand(cfg *config.Configuration) *cobra.Command {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Inspect the Garmin credential bundle",
	}

	tokensCmd.AddCommand(newTokensCheckCommand(cfg))

	return tokensCmd
}

func newTokensCheckCommand(cfg *config.Configuration) *cobra.Command {
	var dryRun bool

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve the credentials and report what was found",
		Long: `Runs the same credential resolution as "run" and prints the outcome.
With --dry-run the decision is printed and nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := osfs.New("/", osfs.WithBoundOS())
			layout := credentials.Layout{
				SingleFile: cfg.Credentials.TokensFile,
				TwoFileDir: cfg.Credentials.TokensDir,
			}
			resolver := credentials.NewResolver(fs, layout, credentials.EnvironmentFromOS())
			out := cmd.OutOrStdout()

			if dryRun {
				plan, err := resolver.Plan()
				if err != nil {
					printFailure(out, err)
					return err
				}
				printPlan(out, plan)
				return nil
			}

			target, err := resolver.Resolve()
			if err != nil {
				printFailure(out, err)
				return err
			}
			printTarget(out, target)

			session, err := garmin.LoadSession(credentials.NewDiskStore(fs), target)
			if err != nil {
				printFailure(out, err)
				return err
			}
			printSession(out, session, time.Now())

			return nil
		},
	}

	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the decision without writing any file")

	return checkCmd
}

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnMark = color.New(color.FgYellow, color.Bold).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printPlan(w io.Writer, plan *credentials.Plan) {
	fmt.Fprintf(w, "%s %s credentials from %s at %s\n", okMark("✓"), plan.Shape, plan.Source, plan.Location)
	if plan.RelocateStale {
		fmt.Fprintf(w, "  would move the file at %s aside\n", plan.Directory)
	}
	for _, wr := range plan.Writes {
		fmt.Fprintf(w, "  would write %s (%d bytes)\n", wr.Path, len(wr.Data))
	}
	printNotices(w, plan.Notices)
}

func printTarget(w io.Writer, target credentials.ResolvedTarget) {
	fmt.Fprintf(w, "%s %s\n", okMark("✓"), target)
	for _, f := range target.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	printNotices(w, target.Notices)
}

func printSession(w io.Writer, session *garmin.Session, now time.Time) {
	switch {
	case session.Token.Expiry.IsZero():
		fmt.Fprintf(w, "%s oauth2 token has no expiry\n", warnMark("!"))
	case session.Expired(now):
		fmt.Fprintf(w, "%s oauth2 token expired at %s\n", failMark("✗"), session.Token.Expiry.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "%s oauth2 token valid until %s\n", okMark("✓"), session.Token.Expiry.UTC().Format(time.RFC3339))
	}
}

func printNotices(w io.Writer, notices []error) {
	for _, n := range notices {
		fmt.Fprintf(w, "%s %v\n", warnMark("!"), n)
	}
}

func printFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", failMark("✗"), err)
}
