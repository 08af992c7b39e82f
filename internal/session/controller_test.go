package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mailpilot/triage-tui/internal/api"
	"github.com/mailpilot/triage-tui/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeGateway implements api.Gateway with pluggable chat/draft behavior.
type fakeGateway struct {
	chatFn  func(ctx context.Context, emailID int, query string) (string, error)
	draftFn func(ctx context.Context, emailID int, instruction string) (*models.Draft, error)

	chatCalls  int32
	draftCalls int32
}

func (f *fakeGateway) ListEmails(ctx context.Context) ([]models.Email, error) { return nil, nil }
func (f *fakeGateway) GetEmail(ctx context.Context, id int) (*models.Email, error) {
	return nil, nil
}
func (f *fakeGateway) TriggerIngest(ctx context.Context) error { return nil }
func (f *fakeGateway) ListPrompts(ctx context.Context) ([]models.PromptTemplate, error) {
	return nil, nil
}
func (f *fakeGateway) UpdatePrompt(ctx context.Context, promptType, text string) (*models.PromptTemplate, error) {
	return nil, nil
}

func (f *fakeGateway) Chat(ctx context.Context, emailID int, query string) (string, error) {
	atomic.AddInt32(&f.chatCalls, 1)
	if f.chatFn != nil {
		return f.chatFn(ctx, emailID, query)
	}
	return "", fmt.Errorf("no chat handler")
}

func (f *fakeGateway) GenerateDraft(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
	atomic.AddInt32(&f.draftCalls, 1)
	if f.draftFn != nil {
		return f.draftFn(ctx, emailID, instruction)
	}
	return nil, fmt.Errorf("no draft handler")
}

func emailFrom(id int, sender string) models.Email {
	return models.Email{ID: id, Sender: sender, Subject: "subject", Body: "body"}
}

func TestSelect_SeedsGreetingForEachSender(t *testing.T) {
	c := NewController(&fakeGateway{})

	c.Select(emailFrom(1, "alice@example.com"))
	viewA := c.Snapshot()
	require.Len(t, viewA.Transcript, 1)
	assert.Equal(t, models.RoleAgent, viewA.Transcript[0].Role)
	assert.Contains(t, viewA.Transcript[0].Content, "alice@example.com")

	c.Select(emailFrom(2, "bob@example.com"))
	viewB := c.Snapshot()
	require.Len(t, viewB.Transcript, 1)
	assert.Contains(t, viewB.Transcript[0].Content, "bob@example.com")
	assert.NotEqual(t, viewA.Transcript[0].Content, viewB.Transcript[0].Content)

	// Re-visiting produces a fresh session, not a continuation.
	c.Select(emailFrom(1, "alice@example.com"))
	viewA2 := c.Snapshot()
	require.Len(t, viewA2.Transcript, 1)
	assert.Contains(t, viewA2.Transcript[0].Content, "alice@example.com")
	assert.Nil(t, viewA2.Draft)
}

func TestSendMessage_AppendsUserAndAgentTurns(t *testing.T) {
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			assert.Equal(t, 5, emailID)
			assert.Equal(t, "Please summarize this email", query)
			return "Here is the summary.", nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(5, "carol@example.com"))

	require.True(t, c.SendMessage(context.Background(), "Please summarize this email"))
	c.Wait()

	view := c.Snapshot()
	require.Len(t, view.Transcript, 3)
	assert.Equal(t, models.RoleUser, view.Transcript[1].Role)
	assert.Equal(t, "Please summarize this email", view.Transcript[1].Content)
	assert.Equal(t, models.RoleAgent, view.Transcript[2].Role)
	assert.Equal(t, "Here is the summary.", view.Transcript[2].Content)
	assert.False(t, view.ChatPending)
}

func TestSendMessage_EmptyOrWhitespaceIsNoOp(t *testing.T) {
	gateway := &fakeGateway{}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	assert.False(t, c.SendMessage(context.Background(), ""))
	assert.False(t, c.SendMessage(context.Background(), "   "))
	assert.False(t, c.SendMessage(context.Background(), "\n\t"))

	view := c.Snapshot()
	assert.Len(t, view.Transcript, 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(&gateway.chatCalls))
}

func TestSendMessage_RefusedWhileChatOutstanding(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			<-release
			return "reply", nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	require.True(t, c.SendMessage(context.Background(), "first"))
	assert.False(t, c.SendMessage(context.Background(), "second"))

	close(release)
	c.Wait()

	view := c.Snapshot()
	assert.Equal(t, int32(1), atomic.LoadInt32(&gateway.chatCalls))
	// greeting + first + reply; "second" never entered the transcript
	require.Len(t, view.Transcript, 3)
	assert.Equal(t, "first", view.Transcript[1].Content)
}

func TestSendMessage_FailureSurfacesApologyInTranscript(t *testing.T) {
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			return "", &api.TransportError{Op: "chat", Err: context.DeadlineExceeded}
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	require.True(t, c.SendMessage(context.Background(), "hello"))
	c.Wait()

	view := c.Snapshot()
	require.Len(t, view.Transcript, 3)
	assert.Equal(t, models.RoleAgent, view.Transcript[2].Role)
	assert.Equal(t, "Sorry, I encountered an error.", view.Transcript[2].Content)
	assert.False(t, view.ChatPending)

	// Failure returns the session to idle; the next send goes through.
	gateway.chatFn = func(ctx context.Context, emailID int, query string) (string, error) {
		return "recovered", nil
	}
	require.True(t, c.SendMessage(context.Background(), "again"))
	c.Wait()
	assert.Len(t, c.Snapshot().Transcript, 5)
}

func TestSendMessage_StaleReplyDiscardedAfterSwitch(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			<-release
			return "reply for A", nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))
	require.True(t, c.SendMessage(context.Background(), "question for A"))

	// Switch while A's call is in flight, then let it resolve.
	c.Select(emailFrom(2, "bob@example.com"))
	close(release)
	c.Wait()

	view := c.Snapshot()
	assert.Equal(t, 2, view.EmailID)
	require.Len(t, view.Transcript, 1)
	assert.Contains(t, view.Transcript[0].Content, "bob@example.com")
	assert.False(t, view.ChatPending)
}

func TestQuick_EchoesSynthesizedPrompt(t *testing.T) {
	var gotQuery string
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			gotQuery = query
			return "done", nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	t.Run("summarize", func(t *testing.T) {
		require.True(t, c.Quick(context.Background(), QuickSummarize))
		c.Wait()
		assert.Equal(t, "Please summarize this email", gotQuery)
		view := c.Snapshot()
		assert.Equal(t, "Please summarize this email", view.Transcript[1].Content)
		assert.Equal(t, models.RoleUser, view.Transcript[1].Role)
	})

	t.Run("extract_tasks", func(t *testing.T) {
		require.True(t, c.Quick(context.Background(), QuickExtractTasks))
		c.Wait()
		assert.Equal(t, "Extract all action items from this email", gotQuery)
	})

	t.Run("unknown", func(t *testing.T) {
		before := len(c.Snapshot().Transcript)
		assert.False(t, c.Quick(context.Background(), QuickAction("archive")))
		assert.Len(t, c.Snapshot().Transcript, before)
	})
}

func TestRequestDraft_SetsDraftAndAnnounces(t *testing.T) {
	gateway := &fakeGateway{
		draftFn: func(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
			return &models.Draft{ID: 7, EmailID: emailID, Subject: "Re: subject", Body: "Thanks!", Status: "generated"}, nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(3, "dave@example.com"))

	require.True(t, c.RequestDraft(context.Background(), ""))
	c.Wait()

	view := c.Snapshot()
	require.NotNil(t, view.Draft)
	assert.Equal(t, 7, view.Draft.ID)
	assert.Equal(t, 3, view.Draft.EmailID)
	require.Len(t, view.Transcript, 2)
	assert.Equal(t, "I've drafted a reply for you below.", view.Transcript[1].Content)
	assert.False(t, view.DraftPending)
}

func TestRequestDraft_ReentrantCallIgnored(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{
		draftFn: func(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
			<-release
			return &models.Draft{ID: 1, EmailID: emailID}, nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	require.True(t, c.RequestDraft(context.Background(), ""))
	assert.False(t, c.RequestDraft(context.Background(), ""))

	close(release)
	c.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&gateway.draftCalls))
}

func TestRequestDraft_FailureIsSilentInTranscript(t *testing.T) {
	gateway := &fakeGateway{
		draftFn: func(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
			return nil, &api.ServerError{Op: "generate draft", StatusCode: 500, Message: "model overloaded"}
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	require.True(t, c.RequestDraft(context.Background(), ""))
	c.Wait()

	view := c.Snapshot()
	assert.Nil(t, view.Draft)
	assert.Len(t, view.Transcript, 1)
	assert.False(t, view.DraftPending)
}

func TestRequestDraft_StaleDraftDiscardedAfterSwitch(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{
		draftFn: func(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
			<-release
			return &models.Draft{ID: 9, EmailID: emailID}, nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))
	require.True(t, c.RequestDraft(context.Background(), ""))

	c.Select(emailFrom(2, "bob@example.com"))
	close(release)
	c.Wait()

	view := c.Snapshot()
	assert.Nil(t, view.Draft)
	assert.Len(t, view.Transcript, 1)
}

func TestDraftAndChatAreIndependent(t *testing.T) {
	chatRelease := make(chan struct{})
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			<-chatRelease
			return "chat reply", nil
		},
		draftFn: func(ctx context.Context, emailID int, instruction string) (*models.Draft, error) {
			return &models.Draft{ID: 2, EmailID: emailID}, nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	require.True(t, c.SendMessage(context.Background(), "still thinking"))
	// A pending chat reply must not block drafting.
	require.True(t, c.RequestDraft(context.Background(), ""))

	close(chatRelease)
	c.Wait()

	view := c.Snapshot()
	assert.NotNil(t, view.Draft)
	assert.False(t, view.ChatPending)
	assert.False(t, view.DraftPending)
}

func TestSnapshot_IsACopy(t *testing.T) {
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			return "reply", nil
		},
	}
	c := NewController(gateway)
	c.Select(emailFrom(1, "alice@example.com"))

	view := c.Snapshot()
	view.Transcript[0].Content = "mutated"

	assert.NotEqual(t, "mutated", c.Snapshot().Transcript[0].Content)
}

func TestNotify_FiresOnCompletionsOnly(t *testing.T) {
	var notifications int32
	release := make(chan struct{})
	gateway := &fakeGateway{
		chatFn: func(ctx context.Context, emailID int, query string) (string, error) {
			<-release
			return "reply", nil
		},
	}
	c := NewController(gateway)
	c.SetNotify(func() { atomic.AddInt32(&notifications, 1) })

	// Selecting and the optimistic append happen on the caller's own
	// goroutine and are rendered there; firing the callback for them
	// would block a UI event loop waiting on itself.
	c.Select(emailFrom(1, "alice@example.com"))
	require.True(t, c.SendMessage(context.Background(), "hi"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&notifications))

	close(release)
	c.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&notifications))
}
