package bpe

import "fmt"

// BuildVocabulary rebuilds the byte sequence of every token from a merge
// table. The 256 byte tokens are seeded first, then merges are replayed in
// ascending id order so each rule only refers to ids resolved before it.
// The result does not depend on map iteration order.
func BuildVocabulary(merges map[Pair]TokenID) (Vocabulary, error) {
	vocab := make(Vocabulary, NumBytes+len(merges))
	for i := range NumBytes {
		vocab[TokenID(i)] = []byte{byte(i)}
	}

	for _, rule := range Rules(merges) {
		if rule.ID < NumBytes {
			return nil, fmt.Errorf("%w: %s", ErrReservedID, rule)
		}

		if _, ok := vocab[rule.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, rule)
		}

		first, ok := vocab[rule.First]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedOperand, rule)
		}

		second, ok := vocab[rule.Second]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedOperand, rule)
		}

		token := make([]byte, 0, len(first)+len(second))
		token = append(token, first...)
		vocab[rule.ID] = append(token, second...)
	}

	return vocab, nil
}
