// cmd_utils.go - input reading and tokenizer resolution
// Main functions: readInputs, resolveModel, parseIDs
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/envconfig"
	"github.com/ollama/minibpe/model"
	"github.com/ollama/minibpe/store"
)

// readInputs reads every path concurrently and returns the contents in
// argument order. "-" reads stdin, once, however often it is given.
func readInputs(ctx context.Context, stdin io.Reader, paths []string) ([]string, error) {
	texts := make([]string, len(paths))

	var input *string
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(int(envconfig.NumParallel()))
	for i, path := range paths {
		if path == "-" {
			if input == nil {
				b, err := io.ReadAll(stdin)
				if err != nil {
					return nil, fmt.Errorf("read stdin: %w", err)
				}
				input = new(string)
				*input = string(b)
			}
			texts[i] = *input
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			texts[i] = string(b)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return texts, nil
}

func openStore() (*store.Store, error) {
	return store.Open(envconfig.Store())
}

// resolveModel loads a tokenizer from a file if arg names one, otherwise
// from the store.
func resolveModel(ctx context.Context, arg string) (model.Model, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		return model.Load(arg)
	}

	if envconfig.NoStore() {
		return model.Model{}, fmt.Errorf("tokenizer file %q not found", arg)
	}

	s, err := openStore()
	if err != nil {
		return model.Model{}, err
	}
	defer s.Close()

	m, err := s.Load(ctx, arg)
	if errors.Is(err, store.ErrNotFound) {
		if suggestion := suggestName(ctx, s, arg); suggestion != "" {
			return model.Model{}, fmt.Errorf("%w: %s, did you mean %q?", store.ErrNotFound, arg, suggestion)
		}
	}
	return m, err
}

func resolveTokenizer(ctx context.Context, arg string) (model.TextProcessor, error) {
	m, err := resolveModel(ctx, arg)
	if err != nil {
		return nil, err
	}

	return model.New(m)
}

// suggestName returns the stored name closest to name, or "" if none is
// close enough to be a likely typo.
func suggestName(ctx context.Context, s *store.Store, name string) string {
	entries, err := s.List(ctx)
	if err != nil {
		return ""
	}

	best, score := "", math.MaxInt
	for _, e := range entries {
		if d := levenshtein.ComputeDistance(name, e.Name); d < score {
			best, score = e.Name, d
		}
	}

	if score <= max(2, len(name)/3) {
		return best
	}
	return ""
}

// parseIDs reads whitespace or comma separated token ids.
func parseIDs(fields []string) ([]bpe.TokenID, error) {
	var ids []bpe.TokenID
	for _, field := range fields {
		for _, s := range strings.FieldsFunc(field, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' }) {
			n, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q", s)
			}
			ids = append(ids, bpe.TokenID(n))
		}
	}
	return ids, nil
}

func formatIDs(ids []bpe.TokenID) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
