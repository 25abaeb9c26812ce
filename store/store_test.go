package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "tokenizers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func trainedModel(t *testing.T, text string, shuffled bool) model.Model {
	t.Helper()

	var tp model.TextProcessor
	if shuffled {
		shuffle := bpe.IdentityShuffle()
		shuffle['o'], shuffle['t'] = 't', 'o'
		tok, err := bpe.TrainShuffled(strings.Repeat(text, 3), 256+10, shuffle, nil)
		require.NoError(t, err)
		tp = tok
	} else {
		tok, err := bpe.Train(strings.Repeat(text, 3), 256+10)
		require.NoError(t, err)
		tp = tok
	}

	return model.FromTextProcessor(tp, "gpt4")
}

func TestSaveLoad(t *testing.T) {
	s := openStore(t)
	ctx := t.Context()

	for _, shuffled := range []bool{false, true} {
		m := trainedModel(t, "store the tokenizer, load the tokenizer. ", shuffled)
		name := m.Kind

		e, err := s.Save(ctx, name, m)
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		require.Equal(t, m.Digest(), e.Digest)
		require.Equal(t, 10, e.Merges)

		back, err := s.Load(ctx, name)
		require.NoError(t, err)
		if diff := cmp.Diff(m, back); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}

		want, err := model.New(m)
		require.NoError(t, err)
		got, err := model.New(back)
		require.NoError(t, err)
		require.Equal(t, want.Encode("the tokenizer"), got.Encode("the tokenizer"))
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openStore(t)
	ctx := t.Context()

	first, err := s.Save(ctx, "tok", trainedModel(t, "first corpus ", false))
	require.NoError(t, err)

	second, err := s.Save(ctx, "tok", trainedModel(t, "second, different corpus ", false))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, second.Digest, entries[0].Digest)

	// merges of the replaced tokenizer are gone
	var n int
	require.NoError(t, s.db.conn.QueryRow("SELECT COUNT(*) FROM merges").Scan(&n))
	require.Equal(t, 10, n)
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := t.Context()

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Save(ctx, name, trainedModel(t, "list me "+name+" ", false))
		require.NoError(t, err)
	}

	entries, err = s.List(ctx)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		require.Equal(t, 10, e.Merges)
		require.Equal(t, model.KindBasic, e.Kind)
		require.False(t, e.CreatedAt.IsZero())
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	e, err := s.Get(ctx, "mid")
	require.NoError(t, err)
	require.Equal(t, "gpt4", e.Pattern)
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	ctx := t.Context()

	_, err := s.Save(ctx, "gone", trainedModel(t, "delete me ", false))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "gone"))
	require.ErrorIs(t, s.Delete(ctx, "gone"), ErrNotFound)

	_, err = s.Load(ctx, "gone")
	require.ErrorIs(t, err, ErrNotFound)

	var n int
	require.NoError(t, s.db.conn.QueryRow("SELECT COUNT(*) FROM merges").Scan(&n))
	require.Zero(t, n)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := openStore(t)

	_, err := s.Save(t.Context(), "bad", model.Model{Merges: []bpe.MergeRule{{Pair: bpe.Pair{First: 1, Second: 2}, ID: 5}}})
	require.ErrorIs(t, err, bpe.ErrReservedID)

	_, err = s.Save(t.Context(), "", trainedModel(t, "unnamed ", false))
	require.Error(t, err)

	entries, err := s.List(t.Context())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizers.db")
	ctx := t.Context()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(ctx, "kept", trainedModel(t, "persist across opens ", true))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.db.getSchemaVersion()
	require.NoError(t, err)
	require.Equal(t, currentSchemaVersion, version)

	m, err := s.Load(ctx, "kept")
	require.NoError(t, err)
	require.Equal(t, model.KindShuffled, m.Kind)
	require.NotNil(t, m.Shuffle)
}

func TestDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env", "store.db")
	t.Setenv("MINIBPE_STORE", path)

	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.FileExists(t, path)
}
