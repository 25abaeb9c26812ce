package bpe

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Encoder is implemented by Tokenizer and ShuffledTokenizer.
type Encoder interface {
	Encode(text string) []TokenID
}

// EncodeBatch encodes texts concurrently with at most limit encodes in
// flight. Results are in input order. A limit of zero or less is unbounded.
func EncodeBatch(ctx context.Context, enc Encoder, texts []string, limit int) ([][]TokenID, error) {
	ids := make([][]TokenID, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			ids[i] = enc.Encode(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ids, nil
}
