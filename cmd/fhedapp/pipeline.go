package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/dapp"
	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/model"

	"github.com/spf13/cobra"
)

// withPipeline runs fn against the named dApp with a deadline covering
// relayer calls and receipt waits.
func withPipeline(cmd *cobra.Command, slug string, fn func(ctx context.Context, p *dapp.Pipeline) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.ReceiptTimeout+2*a.cfg.RelayerTimeout)
	defer cancel()

	session, err := a.session(ctx)
	if err != nil {
		return err
	}
	p, err := session.Pipeline(slug)
	if err != nil {
		return err
	}
	return fn(ctx, p)
}

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <slug> <action> [name=value ...]",
		Short: "Encrypt inputs and send an action transaction",
		Example: `  # Guess a door code
  fhedapp submit hidden-door-code submitGuess guess=4321

  # Flip a coin
  fhedapp submit coin-flipper playFlip choice=1`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}
			return withPipeline(cmd, args[0], func(ctx context.Context, p *dapp.Pipeline) error {
				res, err := p.Submit(ctx, args[1], params)
				if err != nil {
					if res != nil && res.TxHash != "" {
						return fmt.Errorf("%w (tx %s)", err, res.TxHash)
					}
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func newHandleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handle <slug> <result> [name=value ...]",
		Short: "Read the ciphertext handle of a result",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}
			return withPipeline(cmd, args[0], func(ctx context.Context, p *dapp.Pipeline) error {
				h, err := p.Handle(ctx, args[1], params)
				if err != nil {
					return err
				}
				return printJSON(model.HandleResponse{Dapp: args[0], Result: args[1], Handle: h.Hex()})
			})
		},
	}
}

func newMakePublicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "make-public <slug> <result> [name=value ...]",
		Short: "Mark a result as publicly decryptable",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}
			return withPipeline(cmd, args[0], func(ctx context.Context, p *dapp.Pipeline) error {
				res, err := p.MakePublic(ctx, args[1], params)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func newDecryptCmd() *cobra.Command {
	var (
		rawHandle  string
		makePublic bool
	)

	cmd := &cobra.Command{
		Use:   "decrypt <slug> <result>[,<result>...] [name=value ...]",
		Short: "Publicly decrypt results and print their labels",
		Long: `Publicly decrypt a result and print its label. Several comma-separated
results are decrypted together in one relayer request.`,
		Example: `  # Reveal the last guess result, making it public first
  fhedapp decrypt hidden-door-code result --make-public

  # Decrypt a match by id
  fhedapp decrypt blind-freelance-match match freelancerId=1 jobId=2

  # Reveal grade and pass flag together
  fhedapp decrypt hidden-grade-release grade,passed --make-public`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}
			if results := strings.Split(args[1], ","); len(results) > 1 {
				if rawHandle != "" {
					return fmt.Errorf("--handle decrypts a single result")
				}
				return withPipeline(cmd, args[0], func(ctx context.Context, p *dapp.Pipeline) error {
					out, err := p.DecryptAll(ctx, results, params, makePublic)
					if err != nil {
						return err
					}
					return printJSON(out)
				})
			}
			opts := dapp.DecryptOptions{MakePublic: makePublic}
			if rawHandle != "" {
				h, err := handle.Parse(rawHandle)
				if err != nil {
					return err
				}
				opts.Handle = &h
			}
			return withPipeline(cmd, args[0], func(ctx context.Context, p *dapp.Pipeline) error {
				out, err := p.Decrypt(ctx, args[1], params, opts)
				if err != nil {
					return err
				}
				return printJSON(out)
			})
		},
	}

	cmd.Flags().StringVar(&rawHandle, "handle", "", "Decrypt this handle instead of reading it from the contract")
	cmd.Flags().BoolVar(&makePublic, "make-public", false, "Call the result's make-public method first")

	return cmd
}

func newDecryptHandleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt-handle <handle> [handle ...]",
		Short: "Publicly decrypt any handles that were made public",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hs := make([]handle.Handle, len(args))
			for i, arg := range args {
				h, err := handle.Parse(arg)
				if err != nil {
					return err
				}
				hs[i] = h
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.RelayerTimeout)
			defer cancel()

			session, err := a.session(ctx)
			if err != nil {
				return err
			}
			vs, err := session.PublicDecryptAll(ctx, hs)
			if err != nil {
				return err
			}
			out := make([]model.RawDecryptResponse, len(hs))
			for i, h := range hs {
				out[i] = model.RawDecryptResponse{Handle: h.Hex(), Value: vs[i].Dec()}
			}
			if len(out) == 1 {
				return printJSON(out[0])
			}
			return printJSON(out)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		name   string
		step   string
		status string
		from   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history [slug]",
		Short: "List journaled pipeline steps, newest first",
		Long: `List journaled pipeline steps of a dApp, newest first. Without a slug,
list the dApps that have a journal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) == 0 {
				journal, err := a.store()
				if err != nil {
					return err
				}
				names, err := journal.Dapps()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			if _, err := catalog.Get(args[0]); err != nil {
				return err
			}

			req := &model.HistoryRequest{Limit: limit}
			if name != "" {
				req.Name = &name
			}
			if step != "" {
				s := model.Step(step)
				req.Step = &s
			}
			if status != "" {
				s := model.Status(status)
				req.Status = &s
			}
			if from != "" {
				t, err := time.Parse("2006-01-02", from)
				if err != nil {
					return errors.New("invalid --from date: use YYYY-MM-DD")
				}
				req.From = &t
			}
			if err := req.Validate(); err != nil {
				return err
			}

			journal, err := a.store()
			if err != nil {
				return err
			}
			entries, err := journal.List(args[0], req)
			if err != nil {
				return err
			}
			return printJSON(model.HistoryResponse{Dapp: args[0], Entries: entries})
		},
	}

	cmd.Flags().StringVar(&name, "action", "", "Action or result name")
	cmd.Flags().StringVar(&step, "step", "", "submit, handle, make_public or decrypt")
	cmd.Flags().StringVar(&status, "status", "", "ok or failed")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries")

	return cmd
}
