package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"paper-hub/models"
	"paper-hub/providers/static"
	"paper-hub/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type locatingStore struct {
	*storage.MemoryStore
}

func (locatingStore) FileURL(path string) string { return "https://files.example/" + path }

func newSession(t *testing.T, store storage.DocumentStore) *LibraryService {
	t.Helper()
	svc := NewLibraryService(newSync(store), static.New("alice", "https://avatars.example/alice.png"), zap.NewNop())
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	svc.Now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	require.NoError(t, svc.Connect(context.Background()))
	return svc
}

func TestSessionRequiresConnect(t *testing.T) {
	svc := NewLibraryService(newSync(newMemory(t, nil)), static.New("alice", ""), zap.NewNop())

	_, err := svc.RequestMutation(context.Background(), DeletePaper{PaperID: "x"})
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = svc.AddPaper(context.Background(), PaperInput{ExternalRef: "1706.03762"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSessionAddPaperFromArxivURL(t *testing.T) {
	mem := newMemory(t, nil)
	svc := newSession(t, mem)
	assert.Equal(t, "alice", svc.User().Login)

	p, err := svc.AddPaper(context.Background(), PaperInput{
		Title:       "  Attention   Is All You Need ",
		ExternalRef: "https://arxiv.org/abs/1706.03762v7",
		Tags:        []string{"nlp, transformers", " NLP", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, models.SourceExternal, p.SourceKind)
	assert.Equal(t, "1706.03762", p.ExternalID)
	assert.Equal(t, "alice", p.AddedBy)
	assert.Equal(t, []string{"nlp", "transformers"}, p.Tags)

	st := svc.State()
	require.Len(t, st.Papers, 1)
	assert.Equal(t, p, st.Papers[0])
	assert.NotEqual(t, storage.NoVersion, st.Version)

	got, ok := svc.Paper("id-1")
	assert.True(t, ok)
	assert.Equal(t, p.Title, got.Title)
}

func TestSessionAddHostedPaper(t *testing.T) {
	svc := newSession(t, locatingStore{newMemory(t, nil)})

	p, err := svc.AddPaper(context.Background(), PaperInput{HostedPath: "/papers/../papers/survey.pdf"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceHosted, p.SourceKind)
	assert.Equal(t, "papers/survey.pdf", p.HostedPath)
	assert.Equal(t, "survey.pdf", p.Title)

	loc, err := svc.Locate(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/papers/survey.pdf", loc.URL)
}

func TestSessionAddPaperValidation(t *testing.T) {
	svc := newSession(t, newMemory(t, nil))

	_, err := svc.AddPaper(context.Background(), PaperInput{ExternalRef: "not an id"})
	assert.Equal(t, FailureValidation, KindOf(err))

	_, err = svc.AddPaper(context.Background(), PaperInput{SourceKind: models.SourceHosted})
	assert.Equal(t, FailureValidation, KindOf(err))

	_, err = svc.AddPaper(context.Background(), PaperInput{SourceKind: "doi", ExternalRef: "10.1/x"})
	assert.Equal(t, FailureValidation, KindOf(err))
	assert.Empty(t, svc.State().Papers)
}

func TestSessionCommentAndDelete(t *testing.T) {
	svc := newSession(t, newMemory(t, nil))
	ctx := context.Background()

	p, err := svc.AddPaper(ctx, PaperInput{ExternalRef: "2301.00001"})
	require.NoError(t, err)
	assert.Equal(t, "arXiv:2301.00001", p.Title)

	c, err := svc.AddComment(ctx, p.ID, CommentInput{Text: "Nice  ablation\r\n", PageRef: "4", Quote: "ﬁne-tuning"})
	require.NoError(t, err)
	assert.Equal(t, "Nice ablation", c.Text)
	assert.Equal(t, "fine-tuning", c.Quote)
	assert.Equal(t, "alice", c.Author)
	assert.Equal(t, "https://avatars.example/alice.png", c.AuthorAvatar)

	got, _ := svc.Paper(p.ID)
	require.Len(t, got.Comments, 1)

	_, err = svc.AddComment(ctx, p.ID, CommentInput{Text: "  "})
	assert.Equal(t, FailureValidation, KindOf(err))

	_, err = svc.AddComment(ctx, "missing", CommentInput{Text: "hello"})
	assert.ErrorIs(t, err, ErrPaperNotFound)

	st, err := svc.DeletePaper(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Papers)

	st, err = svc.DeletePaper(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Papers)
}

func TestSessionStateUnchangedOnFailure(t *testing.T) {
	mem := newMemory(t, models.Library{paper("1")})
	hooked := &hookStore{DocumentStore: mem}
	svc := newSession(t, hooked)
	before := svc.State()

	hooked.writeErr = &storage.StoreError{Backend: "memory", Op: "write", Message: "boom"}
	_, err := svc.DeletePaper(context.Background(), "1")
	assert.Equal(t, FailureStore, KindOf(err))
	assert.Equal(t, before, svc.State())
}

func TestSessionRefreshPicksUpRemoteChanges(t *testing.T) {
	mem := newMemory(t, nil)
	svc := newSession(t, mem)
	assert.Empty(t, svc.State().Papers)

	_, err := newSync(mem).Sync(context.Background(), AddPaper{Paper: paper("remote")}, "bob")
	require.NoError(t, err)

	require.NoError(t, svc.Refresh(context.Background()))
	require.Len(t, svc.State().Papers, 1)
	assert.Equal(t, "remote", svc.State().Papers[0].ID)
	assert.Len(t, svc.References(), 1)
}

func TestSessionConnectFailsWithoutIdentity(t *testing.T) {
	svc := NewLibraryService(newSync(newMemory(t, nil)), static.New("", ""), zap.NewNop())
	err := svc.Connect(context.Background())
	require.Error(t, err)
	assert.Nil(t, svc.User())
}

func TestLocateArxivAndMissing(t *testing.T) {
	svc := newSession(t, newMemory(t, models.Library{paper("1")}))

	loc, err := svc.Locate("1")
	require.NoError(t, err)
	assert.Equal(t, "https://arxiv.org/abs/2401.00001", loc.URL)
	assert.Equal(t, "https://arxiv.org/pdf/2401.00001", loc.PDFURL)

	_, err = svc.Locate("missing")
	assert.ErrorIs(t, err, ErrPaperNotFound)
}

func TestLocateHostedWithoutLocator(t *testing.T) {
	reg := NewRetrievalRegistry(newMemory(t, nil))
	_, err := reg.Locate(models.Paper{ID: "x", SourceKind: models.SourceHosted, HostedPath: "a.pdf"})
	assert.ErrorIs(t, err, ErrNoRetrieval)
}
