package llm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendOutsideScopeIsNoop(t *testing.T) {
	tr := NewTranscript()
	tr.Append("dropped")
	assert.Equal(t, 0, tr.Len())

	tr.User(func() { tr.Append("kept") })
	tr.Append("dropped again")
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, Message{Role: RoleUser, Content: "kept"}, tr.Messages()[0])
}

func TestScopedRolesTagAppends(t *testing.T) {
	tr := NewTranscript()
	tr.System(func() { tr.Append("  be terse \n") })
	tr.User(func() {
		tr.Append("first")
		tr.Append("second")
	})
	tr.Assistant(func() { tr.Append("\tok\t") })

	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleUser, Content: "second"},
		{Role: RoleAssistant, Content: "ok"},
	}, tr.Messages())
}

func TestWithRestoresRoleOnPanic(t *testing.T) {
	tr := NewTranscript()
	assert.Panics(t, func() {
		tr.User(func() { panic("boom") })
	})
	tr.Append("after panic")
	assert.Equal(t, 0, tr.Len())
}

func TestNestedScopeRestoresOuterRole(t *testing.T) {
	tr := NewTranscript()
	tr.User(func() {
		tr.Assistant(func() { tr.Append("inner") })
		tr.Append("outer")
	})
	assert.Equal(t, []Message{
		{Role: RoleAssistant, Content: "inner"},
		{Role: RoleUser, Content: "outer"},
	}, tr.Messages())
}

func TestAddTrimsAndLeavesNoActiveRole(t *testing.T) {
	tr := NewTranscript()
	tr.Add(RoleSystem, "\n sys \n").Add(RoleUser, "hi")
	tr.Append("ignored")
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	}, tr.Messages())
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript().Add(RoleUser, "original")
	msgs := tr.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "original", tr.Messages()[0].Content)
}

func TestStringAndReset(t *testing.T) {
	tr := NewTranscript().Add(RoleSystem, "rules").Add(RoleUser, "question")
	assert.Equal(t, "<system>\nrules\n</system>\n<user>\nquestion\n</user>", tr.String())

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "", tr.String())
}

func TestIndependentTranscriptsDoNotShareRole(t *testing.T) {
	var wg sync.WaitGroup
	results := make([][]Message, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr := NewTranscript()
			role := RoleUser
			if i%2 == 0 {
				role = RoleAssistant
			}
			tr.With(role, func() {
				for j := 0; j < 50; j++ {
					tr.Append("x")
				}
			})
			results[i] = tr.Messages()
		}(i)
	}
	wg.Wait()

	for i, msgs := range results {
		want := RoleUser
		if i%2 == 0 {
			want = RoleAssistant
		}
		require.Len(t, msgs, 50)
		for _, m := range msgs {
			assert.Equal(t, want, m.Role)
		}
	}
}
